// -------------------------
// File: dispatch_test.go
// -------------------------
package dispatch

import (
	"testing"
	"time"

	"main/ring"
	"main/sched"
	"main/schedtrace"
)

func TestWorkloadPacking(t *testing.T) {
	w := PackWorkload(0x1234, 500, 7)
	if WorkRemaining(w) != 500 {
		t.Fatalf("WorkRemaining = %d, want 500", WorkRemaining(w))
	}
	if yieldEvery(w) != 7 {
		t.Fatalf("yieldEvery = %d, want 7", yieldEvery(w))
	}
	// Decrementing work must not disturb the control bits.
	w--
	if WorkRemaining(w) != 499 || yieldEvery(w) != 7 {
		t.Fatalf("after decrement: remaining=%d yieldEvery=%d", WorkRemaining(w), yieldEvery(w))
	}
}

// drain empties a ring into a slice of decoded events.
func drain(r *ring.Ring) []schedtrace.Event {
	var evs []schedtrace.Event
	for {
		p := r.Pop()
		if p == nil {
			return evs
		}
		evs = append(evs, *schedtrace.FromBytes(p))
	}
}

// TestDispatchRunsWorkloadToCompletion drives one CPU end to end: finite
// threads at distinct priorities run to exhaustion, the loop retires on the
// idle path, and the emitted trace reflects strict priority order.
func TestDispatchRunsWorkloadToCompletion(t *testing.T) {
	c := sched.New(1).CPU(0)
	tr := ring.New(1 << 12)

	// Distinct priorities, no yields: on one CPU the level-0 thread must
	// finish completely before level 8 starts, and so on.
	type thread struct {
		prio int32
		work uint32
	}
	threads := []thread{{8, 40}, {0, 30}, {200, 20}}
	handleFor := map[uint32]int{}
	totalWork := uint32(0)
	for i, s := range threads {
		h, err := c.Spawn(s.prio, PackWorkload(uint16(i), s.work, 0))
		if err != nil {
			t.Fatalf("Spawn %d: %v", i, err)
		}
		handleFor[uint32(h)] = i
		totalWork += s.work
	}

	drops := 0
	done := make(chan struct{})
	Run(c, tr, time.Microsecond, func() { drops++ }, done)

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("dispatch loop did not retire")
	}

	if !c.RunQueue().Empty() {
		t.Fatal("run queue not empty after workload completion")
	}
	if drops != 0 {
		t.Fatalf("%d trace drops with an oversized ring", drops)
	}

	evs := drain(tr)
	picks := 0
	var exitOrder []int
	var pickPrios []int32
	for i := range evs {
		e := &evs[i]
		switch e.Kind() {
		case schedtrace.KindPick:
			picks++
			pickPrios = append(pickPrios, e.Priority())
		case schedtrace.KindExit:
			exitOrder = append(exitOrder, handleFor[e.Handle()])
		}
	}

	if picks != int(totalWork) {
		t.Fatalf("pick events = %d, want %d (one per work tick)", picks, totalWork)
	}
	if len(exitOrder) != len(threads) {
		t.Fatalf("exit events = %d, want %d", len(exitOrder), len(threads))
	}
	// Strict priority: exits happen in ascending priority order.
	want := []int{1, 0, 2} // prio 0, then 8, then 200
	for i, got := range exitOrder {
		if got != want[i] {
			t.Fatalf("exit order = %v, want %v", exitOrder, want)
		}
	}
	// Pick priorities never go backwards on a single CPU with no arrivals.
	for i := 1; i < len(pickPrios); i++ {
		if pickPrios[i] < pickPrios[i-1] {
			t.Fatalf("pick priority regressed: %d after %d", pickPrios[i], pickPrios[i-1])
		}
	}
}

// TestDispatchYieldingThreadKeepsLevelHead verifies the voluntary-yield
// path: a yielding thread goes back to the head of its level, so a same-
// priority competitor only runs once the yielder's work is done.
func TestDispatchYieldingThreadKeepsLevelHead(t *testing.T) {
	c := sched.New(1).CPU(0)
	tr := ring.New(1 << 12)

	yielder, err := c.Spawn(5, PackWorkload(0, 24, 3)) // yields every 3 ticks
	if err != nil {
		t.Fatalf("Spawn yielder: %v", err)
	}
	_, err = c.Spawn(5, PackWorkload(1, 10, 0))
	if err != nil {
		t.Fatalf("Spawn competitor: %v", err)
	}

	done := make(chan struct{})
	Run(c, tr, time.Microsecond, func() {}, done)
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("dispatch loop did not retire")
	}

	evs := drain(tr)
	var exits []uint32
	yields := 0
	for i := range evs {
		switch evs[i].Kind() {
		case schedtrace.KindExit:
			exits = append(exits, evs[i].Handle())
		case schedtrace.KindYield:
			yields++
		}
	}
	if yields == 0 {
		t.Fatal("no yield events from a yielding workload")
	}
	if len(exits) != 2 || exits[0] != uint32(yielder) {
		t.Fatalf("exit sequence = %v, want yielder %v first", exits, yielder)
	}
}
