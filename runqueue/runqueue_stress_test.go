// Package runqueue contains a long-running stress test to validate
// correctness under extensive randomized operations against a reference
// model of per-level FIFO queues.
package runqueue

import (
	"math/rand"
	"testing"
)

// refModel mirrors the run queue exactly: one ordered slice per priority
// level. Unlike a heap it can express head inserts, so the comparison is
// exact at every step rather than only on drain order.
type refModel struct {
	levels [NumPriorities][]Handle
	size   int
}

func (m *refModel) enqueue(h Handle, p int32) {
	m.levels[p] = append(m.levels[p], h)
	m.size++
}

func (m *refModel) enqueueFront(h Handle, p int32) {
	m.levels[p] = append([]Handle{h}, m.levels[p]...)
	m.size++
}

func (m *refModel) dequeue(h Handle, p int32) {
	lvl := m.levels[p]
	for i, x := range lvl {
		if x == h {
			m.levels[p] = append(lvl[:i:i], lvl[i+1:]...)
			m.size--
			return
		}
	}
	panic("refModel: dequeue of absent handle")
}

func (m *refModel) pick() (Handle, int32, bool) {
	for p := int32(0); p < NumPriorities; p++ {
		if len(m.levels[p]) > 0 {
			return m.levels[p][0], p, true
		}
	}
	return 0, -1, false
}

// TestRunQueueStressRandomOperations applies hundreds of thousands of
// randomized enqueue/enqueue-front/dequeue/pick operations to both the run
// queue and the reference model and demands behavioral parity after every
// step. High-confidence regression test for the splice and bitmap paths.
func TestRunQueueStressRandomOperations(t *testing.T) {
	const iterations = 300_000

	// Deterministic PRNG for reproducibility
	rng := rand.New(rand.NewSource(69))

	q := New()
	ref := &refModel{}

	// queued tracks live handles and their current level.
	queued := map[Handle]int32{}
	idle := []Handle{} // borrowed but not queued

	for i := 0; i < iterations; i++ {
		switch op := rng.Intn(10); {
		case op < 4: // enqueue tail
			var h Handle
			if len(idle) > 0 {
				h = idle[len(idle)-1]
				idle = idle[:len(idle)-1]
			} else {
				var err error
				if h, err = q.BorrowSafe(); err != nil {
					continue // arena full; other ops will free handles
				}
			}
			p := int32(rng.Intn(NumPriorities))
			q.Enqueue(h, p)
			ref.enqueue(h, p)
			queued[h] = p

		case op < 6: // enqueue front
			var h Handle
			if len(idle) > 0 {
				h = idle[len(idle)-1]
				idle = idle[:len(idle)-1]
			} else {
				var err error
				if h, err = q.BorrowSafe(); err != nil {
					continue
				}
			}
			p := int32(rng.Intn(NumPriorities))
			q.EnqueueFront(h, p)
			ref.enqueueFront(h, p)
			queued[h] = p

		case op < 9: // dequeue a random live handle
			if len(queued) == 0 {
				continue
			}
			var h Handle
			for k := range queued { // map iteration as randomized choice
				h = k
				break
			}
			p := queued[h]
			q.Dequeue(h)
			ref.dequeue(h, p)
			delete(queued, h)
			idle = append(idle, h)

		default: // pick-and-dequeue the head
			wh, wp, wok := ref.pick()
			gh, gp, gok := q.PickNext()
			if gok != wok || (gok && (gh != wh || gp != wp)) {
				t.Fatalf("iter %d: PickNext = (%v,%d,%v), want (%v,%d,%v)",
					i, gh, gp, gok, wh, wp, wok)
			}
			if gok {
				q.Dequeue(gh)
				ref.dequeue(wh, wp)
				delete(queued, gh)
				idle = append(idle, gh)
			}
		}

		// Parity checks every step: size and next pick.
		if q.Size() != ref.size {
			t.Fatalf("iter %d: Size = %d, want %d", i, q.Size(), ref.size)
		}
		wh, wp, wok := ref.pick()
		gh, gp, gok := q.PickNext()
		if gok != wok || (gok && (gh != wh || gp != wp)) {
			t.Fatalf("iter %d: post-op PickNext = (%v,%d,%v), want (%v,%d,%v)",
				i, gh, gp, gok, wh, wp, wok)
		}
	}

	// Drain completely and confirm both models agree to the end.
	for {
		wh, wp, wok := ref.pick()
		gh, gp, gok := q.PickNext()
		if gok != wok {
			t.Fatalf("drain: ok mismatch %v vs %v", gok, wok)
		}
		if !gok {
			break
		}
		if gh != wh || gp != wp {
			t.Fatalf("drain: pick = (%v,%d), want (%v,%d)", gh, gp, wh, wp)
		}
		q.Dequeue(gh)
		ref.dequeue(wh, wp)
	}
	if !q.Empty() || ref.size != 0 {
		t.Fatalf("drain incomplete: Size=%d refSize=%d", q.Size(), ref.size)
	}
}
