// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Scheduler-wide compile-time tunables
//
// Purpose:
//   - Defines the fixed geometry of the O(1) scheduler: CPU count, priority
//     levels, bitmap word count, and per-CPU arena capacity.
//   - Defines trace-pipeline sizing and persistence targets.
//
// Notes:
//   - Priority 0 is the highest priority; larger values run later.
//   - NumPriorities must be a multiple of 64 so the bitmap word math stays
//     shift-and-mask only.
//   - CapThreads bounds concurrent runnable threads per CPU, not total
//     threads ever created — handles recycle through the arena freelist.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Scheduler Geometry ──────────────────────────

const (
	// NumCPUs is the number of simulated CPU cores, each owning one run
	// queue and one pinned dispatch thread. Sized for teaching setups;
	// every per-CPU array in the system derives from this.
	NumCPUs = 4

	// NumPriorities is the number of distinct priority levels.
	// 256 levels over four 64-bit words keeps the first-set scan an actual
	// bounded loop (the multi-word case) instead of a single instruction.
	NumPriorities = 256

	// NumPriorityWords is the bitmap word count covering NumPriorities.
	NumPriorityWords = NumPriorities / 64

	// CapThreads is the per-CPU arena capacity: the maximum number of
	// threads simultaneously known to one run queue. Power of two so the
	// arena footprint stays cache-friendly.
	CapThreads = 1 << 10
)

// Compile-time guard: priority levels must fill whole bitmap words.
var _ [-int(NumPriorities % 64)]byte

// ───────────────────────────── Trace Pipeline ───────────────────────────────

const (
	// TraceRingBits sizes each per-CPU trace ring: 2^14 = 16,384 events.
	// A dispatch loop emits at most a handful of events per tick, so this
	// absorbs multi-second harvester stalls without drops.
	TraceRingBits = 14

	// TraceFlushBatch is the number of buffered events per SQLite
	// transaction. Batching keeps the insert path off the dispatch loops'
	// critical ticks.
	TraceFlushBatch = 1024

	// TraceDatabasePath is the on-disk SQLite database receiving the
	// scheduling trace for offline teaching analysis.
	TraceDatabasePath = "sched_trace.db"

	// TraceManifestPath is the JSON run manifest written next to the
	// database (geometry, totals, schema version).
	TraceManifestPath = "sched_trace.json"
)

// ───────────────────────────── Dispatch Timing ──────────────────────────────

const (
	// TickNanos is the simulated timer-interrupt period. 1 ms mirrors a
	// classic 1000 Hz kernel tick.
	TickNanos = 1_000_000

	// SliceTicks is the default time slice granted per dispatch: how many
	// ticks a thread runs before it is requeued at the tail of its level.
	SliceTicks = 4
)
