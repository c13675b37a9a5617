// ════════════════════════════════════════════════════════════════════════════════════════════════
// Per-CPU Dispatch Loop
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: O(1) Teaching-Kernel Scheduler
// Component: Tick-Driven Dispatch Path
//
// Description:
//   The collaborator side of the scheduler core's boundary: one pinned OS thread per CPU
//   playing the timer-interrupt role. Every tick it asks the core for the next thread
//   (pick_next_task), simulates one tick of execution, and applies the lifecycle decision:
//   slice expiry rotates the thread to the tail of its level, a short voluntary yield puts it
//   back at the head, exhausted threads exit and recycle their handle, and an empty bitmap
//   takes the idle path.
//
// Contract with the core:
//   - Pick is peek-only; this loop owns the follow-up dequeue decision.
//   - All requeue/yield/exit transitions go through the sched entry points, which mask the
//     simulated local interrupts around every splice.
//   - The loop is the only mutator of its CPU's run queue once running; cross-CPU traffic is
//     confined to the trace ring.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package dispatch

import (
	"time"

	"main/constants"
	"main/control"
	"main/ring"
	"main/runqueue"
	"main/sched"
	"main/schedtrace"
)

// idleExitTicks is how many consecutive empty-bitmap ticks a loop tolerates
// before retiring. Workloads here are finite; a drained queue stays drained.
const idleExitTicks = 1024

// noThread marks "no thread currently holds the core" between picks.
const noThread = ^runqueue.Handle(0)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// WORKLOAD PAYLOAD WORD
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// The thread payload word the core carries untouched:
//
//   bits  0–31: remaining work ticks (thread exits at zero)
//   bits 32–39: yield interval (every N remaining-ticks, 0 = never)
//   bits 40–55: workload ordinal for trace analysis

// PackWorkload builds a thread payload word.
//
//go:nosplit
//go:inline
func PackWorkload(ordinal uint16, work uint32, yieldEvery uint8) uint64 {
	return uint64(ordinal)<<40 | uint64(yieldEvery)<<32 | uint64(work)
}

// WorkRemaining extracts the remaining work ticks.
//
//go:nosplit
//go:inline
func WorkRemaining(w uint64) uint32 { return uint32(w) }

// yieldEvery extracts the yield interval.
//
//go:nosplit
//go:inline
func yieldEvery(w uint64) uint32 { return uint32(w>>32) & 0xFF }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DISPATCH LOOP
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Run launches CPU c's dispatch loop on a pinned OS thread. tickPeriod is
// the simulated timer-interrupt interval; tr receives trace records and
// onDrop counts ring overflows. done closes when the loop retires (stop
// flag, or the queue stayed empty for idleExitTicks).
func Run(c *sched.CPU, tr *ring.Ring, tickPeriod time.Duration, onDrop func(), done chan<- struct{}) {
	go func() {
		ring.Pin(c.ID())
		defer func() {
			ring.Unpin()
			close(done)
		}()

		stop, _ := control.Flags()
		cpu := uint8(c.ID())

		var ev schedtrace.Event
		emit := func(tick uint64, kind schedtrace.Kind, prio int32, h uint32, data uint64) {
			ev.Tick = tick
			ev.Meta = schedtrace.Pack(kind, cpu, prio, h)
			ev.Data = data
			if !tr.Push(ev.Bytes()) {
				onDrop()
			}
		}

		var tick uint64
		running := noThread
		sliceLeft := 0
		idle := 0
		next := time.Now()

		for {
			if *stop != 0 {
				return
			}

			// Tick pacing: one loop iteration per simulated timer interrupt.
			next = next.Add(tickPeriod)
			if d := time.Until(next); d > 0 {
				time.Sleep(d)
			} else {
				next = time.Now() // fell behind; don't accumulate debt
			}
			tick++

			// The tick handler defers while the core has interrupts masked.
			// The loop never holds the mask across iterations, so this only
			// trips when lifecycle code runs concurrently in tests.
			if c.IRQMasked() {
				continue
			}

			h, prio, ok := c.PickNextTask()
			if !ok {
				if idle++; idle == 1 {
					emit(tick, schedtrace.KindIdle, -1, uint32(noThread), 0)
				}
				running = noThread
				control.PollCooldown()
				if idle >= idleExitTicks {
					return
				}
				continue
			}
			idle = 0
			control.SignalActivity()

			// New thread on the core gets a fresh slice.
			if h != running {
				running = h
				sliceLeft = constants.SliceTicks
			}

			// Simulate one tick of execution: burn one work unit.
			w := c.RunQueue().Data(h) - 1
			c.RunQueue().SetData(h, w)
			sliceLeft--
			emit(tick, schedtrace.KindPick, prio, uint32(h), w)

			remaining := WorkRemaining(w)
			switch {
			case remaining == 0:
				// Thread finished: remove and recycle.
				if err := c.Exit(h); err == nil {
					emit(tick, schedtrace.KindExit, prio, uint32(h), w)
				}
				running = noThread

			case yieldEvery(w) != 0 && remaining%yieldEvery(w) == 0:
				// Short voluntary yield: back to the head of its level so it
				// runs next unless something higher-priority arrived.
				c.YieldFront(h)
				emit(tick, schedtrace.KindYield, prio, uint32(h), w)
				running = noThread

			case sliceLeft == 0:
				// Slice expiry: rotate to the tail, round-robining the level.
				c.Requeue(h)
				emit(tick, schedtrace.KindRequeue, prio, uint32(h), w)
				running = noThread
			}
		}
	}()
}
