// pinned_consumer.go
//
// Low-latency SPSC consumer for the trace pipeline.
//
//   • Dedicated OS thread pinned to `core`.
//   • Stays in hot-spin (tight loop, no cpuRelax) while
//       – trace records arrived within hotWindow, OR
//       – dispatch loops keep the global hot flag == 1.
//   • After the grace window *and* once hot == 0 it drops to the cold path:
//     cpuRelax after spinBudget consecutive misses.
//   • Exits only when *stop == 1 and closes `done` exactly once.
//
// Rationale: keep harvesting latency negligible while ticks are flowing,
// yet avoid burning a core when every run queue has gone idle.
//
// All cross-goroutine variables are accessed atomically inside Ring; the
// stop/hot words follow the control package's pointer-polling contract.

package ring

import (
	"runtime"
	"time"
)

const (
	spinBudget = 256             // polls before a relax hint
	hotWindow  = 2 * time.Second // hot-spin grace after the last record
)

// PinnedConsumer launches a goroutine bound to a specific CPU core that
// drains r until *stop is set, invoking handler for every record.
func PinnedConsumer(
	core int,
	r *Ring,
	stop, hot *uint32,
	handler func(*[24]byte),
	done chan<- struct{},
) {
	go func() {
		runtime.LockOSThread()
		setAffinity(core) // stub on non-Linux
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		var miss int
		lastHit := time.Now()

		for {
			if *stop != 0 {
				// Drain what is already buffered before leaving so a
				// shutdown never truncates the trace mid-ring.
				for p := r.Pop(); p != nil; p = r.Pop() {
					handler(p)
				}
				return
			}

			if p := r.Pop(); p != nil {
				handler(p)
				miss = 0
				lastHit = time.Now()
				continue
			}

			if *hot == 1 || time.Since(lastHit) <= hotWindow {
				continue // keep spinning for latency
			}

			if miss++; miss >= spinBudget {
				miss = 0
				cpuRelax()
			}
		}
	}()
}
