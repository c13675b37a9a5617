// -------------------------
// File: runqueue_bench_test.go
// -------------------------
package runqueue

import "testing"

// BenchmarkEnqueueDequeue measures the tail-enqueue + dequeue pair, the
// dominant cycle of the dispatch path's slice rotation.
func BenchmarkEnqueueDequeue(b *testing.B) {
	q := New()
	h := q.Borrow()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Enqueue(h, int32(i&255))
		q.Dequeue(h)
	}
}

// BenchmarkPickNext measures the bitmap-driven pick with a populated queue,
// worst-cased by keeping only the last level occupied so the word scan runs
// its full length.
func BenchmarkPickNext(b *testing.B) {
	q := New()
	h := q.Borrow()
	q.Enqueue(h, NumPriorities-1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, ok := q.PickNext(); !ok {
			b.Fatal("unexpected idle")
		}
	}
}

// BenchmarkRotation measures the full slice-expiry rotation across a
// populated level: pick, dequeue, re-enqueue at tail.
func BenchmarkRotation(b *testing.B) {
	q := New()
	for i := 0; i < 64; i++ {
		h := q.Borrow()
		q.Enqueue(h, 8)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, prio, _ := q.PickNext()
		q.Dequeue(h)
		q.Enqueue(h, prio)
	}
}
