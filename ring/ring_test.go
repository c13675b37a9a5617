// -------------------------
// File: ring_test.go
// -------------------------
package ring

import (
	"sync/atomic"
	"testing"
)

func payload(b byte) *[24]byte {
	var v [24]byte
	v[0] = b
	v[23] = b ^ 0xFF
	return &v
}

func TestNewPanicsOnBadSize(t *testing.T) {
	for _, size := range []int{0, -1, 3, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) did not panic", size)
				}
			}()
			New(size)
		}()
	}
}

func TestPushPopSingle(t *testing.T) {
	r := New(8)
	if p := r.Pop(); p != nil {
		t.Fatal("Pop on empty ring returned data")
	}
	if !r.Push(payload(7)) {
		t.Fatal("Push on empty ring failed")
	}
	p := r.Pop()
	if p == nil || p[0] != 7 || p[23] != 7^0xFF {
		t.Fatalf("Pop = %v", p)
	}
	if p := r.Pop(); p != nil {
		t.Fatal("second Pop returned data")
	}
}

func TestFIFOOrderAndFull(t *testing.T) {
	r := New(4)
	for i := byte(0); i < 4; i++ {
		if !r.Push(payload(i)) {
			t.Fatalf("Push %d failed", i)
		}
	}
	if r.Push(payload(9)) {
		t.Fatal("Push succeeded on full ring")
	}
	for i := byte(0); i < 4; i++ {
		p := r.Pop()
		if p == nil || p[0] != i {
			t.Fatalf("Pop %d = %v", i, p)
		}
	}
}

func TestWraparound(t *testing.T) {
	r := New(4)
	next := byte(0)
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			if !r.Push(payload(next + byte(i))) {
				t.Fatalf("round %d: Push failed", round)
			}
		}
		for i := 0; i < 3; i++ {
			p := r.Pop()
			if p == nil || p[0] != next {
				t.Fatalf("round %d: Pop = %v, want %d", round, p, next)
			}
			next++
		}
	}
}

// SPSC smoke: one producer goroutine, one consumer goroutine, sequence
// integrity end to end.
func TestSPSCTransfer(t *testing.T) {
	const n = 100_000
	r := New(1 << 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var expect uint64
		for expect < n {
			p := r.Pop()
			if p == nil {
				continue
			}
			got := uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24
			if got != expect {
				t.Errorf("got %d, want %d", got, expect)
				return
			}
			expect++
		}
	}()

	var v [24]byte
	for i := uint64(0); i < n; {
		v[0], v[1], v[2], v[3] = byte(i), byte(i>>8), byte(i>>16), byte(i>>24)
		if r.Push(&v) {
			i++
		}
	}
	<-done
}

func TestPinnedConsumerDrainsAndStops(t *testing.T) {
	r := New(1 << 8)
	var stop, hot uint32
	hot = 1
	var seen uint64
	done := make(chan struct{})

	PinnedConsumer(0, r, &stop, &hot, func(p *[24]byte) {
		atomic.AddUint64(&seen, 1)
	}, done)

	const n = 1000
	var v [24]byte
	for i := 0; i < n; {
		if r.Push(&v) {
			i++
		}
	}
	for atomic.LoadUint64(&seen) < n {
	}
	atomic.StoreUint32(&stop, 1)
	<-done
	if got := atomic.LoadUint64(&seen); got != n {
		t.Fatalf("consumed %d, want %d", got, n)
	}
}

// Records pushed before stop is observed must still be handled: shutdown
// drains, never truncates.
func TestPinnedConsumerDrainOnStop(t *testing.T) {
	r := New(1 << 8)
	var stop, hot uint32
	var seen uint64
	var v [24]byte
	for i := 0; i < 100; i++ {
		if !r.Push(&v) {
			t.Fatalf("Push %d failed", i)
		}
	}
	stop = 1
	done := make(chan struct{})
	PinnedConsumer(0, r, &stop, &hot, func(p *[24]byte) {
		seen++ // consumer goroutine only; read after <-done
	}, done)
	<-done
	if seen != 100 {
		t.Fatalf("drained %d, want 100", seen)
	}
}
