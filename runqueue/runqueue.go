// ============================================================================
// RUNQUEUE: O(1) PRIORITY-BITMAP RUN QUEUE (PER CPU)
// ============================================================================
//
// RunQueue provides the constant-time core of a classic O(1) scheduler:
// per-priority FIFO queues, a priority bitmap for fast lookup, and
// handle-indexed doubly-linked chains inside a fixed arena.
//
// Architecture overview:
//   - One circular doubly-linked list per priority level, threaded through
//     a reserved sentinel slot in the same handle space as the threads
//   - Priority bitmap with bounded find-first-set over NumPriorityWords
//   - Fixed arena with freelist handle management, zero heap churn
//
// Operational guarantees:
//   - O(1) enqueue at head or tail of any priority level
//   - O(1) dequeue from anywhere via the node's own links
//   - O(1) pick of the highest-priority (lowest-numbered) runnable thread
//   - Bitmap bit i set ⇔ level i non-empty, at every exit point
//
// Safety model:
//   - Hot-path operations trust caller invariants: valid handle, valid
//     priority, thread in at most one queue at a time
//   - Checked *Safe variants validate contracts and return errors
//   - One RunQueue belongs to one CPU; exclusion is the owner's problem
//
// Compiler optimizations:
//   - //go:nosplit for stack management elimination
//   - //go:inline for call overhead elimination
//   - //go:registerparams for register-based parameter passing

package runqueue

import (
	"errors"

	"main/constants"
	"main/prioritybitmap"
)

// ============================================================================
// CONFIGURATION CONSTANTS
// ============================================================================

const (
	// CapThreads is the number of thread slots in the arena.
	CapThreads = constants.CapThreads

	// NumPriorities is the number of priority levels (0 = highest).
	NumPriorities = constants.NumPriorities
)

// Handle represents an opaque arena index for thread entries.
// Handles below CapThreads are thread slots; the NumPriorities slots above
// them are the per-level list sentinels and never leave this package.
type Handle uint32

// Sentinel values
const (
	nilIdx       Handle = ^Handle(0)          // freelist terminator
	sentinelBase Handle = Handle(CapThreads)  // first per-level sentinel slot
	unqueued     int32  = -1                  // node.priority when not linked
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	ErrFull          = errors.New("runqueue: no free handles")
	ErrBadHandle     = errors.New("runqueue: handle out of range")
	ErrBadPriority   = errors.New("runqueue: priority out of range")
	ErrAlreadyQueued = errors.New("runqueue: thread already queued")
	ErrNotQueued     = errors.New("runqueue: thread not queued")
	ErrCorruptLinks  = errors.New("runqueue: thread links disagree with queue")
)

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// node is one arena slot: a thread's queue linkage plus a packed payload
// word the thread subsystem is free to interpret. Sentinel slots reuse the
// same shape so list splices never branch on "is the neighbor a sentinel".
//
//   - prev/next: position in the level's circular chain, or freelist link
//   - priority:  active level while queued, -1 otherwise
//   - data:      caller payload, untouched by queue operations
//
//go:notinheap
type node struct {
	prev     Handle // Previous node in circular chain
	next     Handle // Next node in circular chain or freelist link
	priority int32  // Active level or -1 when free/unqueued
	_        uint32 // Alignment padding
	data     uint64 // Caller payload word
}

// RunQueue is one CPU's complete scheduling state: the arena, the per-level
// sentinels embedded at its top, and the priority bitmap summarizing which
// levels are populated.
//
//go:notinheap
type RunQueue struct {
	arena    [CapThreads + NumPriorities]node // Thread slots + level sentinels
	bitmap   prioritybitmap.Bitmap            // Level i set ⇔ level i non-empty
	freeHead Handle                           // Freelist head
	size     int                              // Currently queued threads
}

// ============================================================================
// CONSTRUCTOR AND INITIALIZATION
// ============================================================================

// New creates a RunQueue with every level empty and every handle free.
//
// Initialization process:
//  1. Thread slots chained into the freelist, marked unqueued
//  2. Every level sentinel linked to itself (the empty-list state)
//  3. Bitmap zeroed
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func New() *RunQueue {
	q := &RunQueue{}
	q.Init()
	return q
}

// Init (re)establishes the empty state in place. Called once per CPU before
// any other operation touches the queue; also the test reset point.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (q *RunQueue) Init() {
	for i := Handle(0); i < CapThreads-1; i++ {
		q.arena[i].next = i + 1
		q.arena[i].prev = nilIdx
		q.arena[i].priority = unqueued
	}
	q.arena[CapThreads-1].next = nilIdx
	q.arena[CapThreads-1].prev = nilIdx
	q.arena[CapThreads-1].priority = unqueued
	q.freeHead = 0

	for p := Handle(0); p < Handle(NumPriorities); p++ {
		s := sentinelBase + p
		q.arena[s].prev = s
		q.arena[s].next = s
		q.arena[s].priority = int32(p)
	}

	q.bitmap.Reset()
	q.size = 0
}

// ============================================================================
// HANDLE MANAGEMENT
// ============================================================================

// Borrow allocates a handle from the freelist. No exhaustion checking —
// capacity management is the caller's contract. See BorrowSafe.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Borrow() Handle {
	h := q.freeHead
	q.freeHead = q.arena[h].next

	n := &q.arena[h]
	n.priority, n.prev, n.next = unqueued, nilIdx, nilIdx
	return h
}

// BorrowSafe allocates a handle with exhaustion checking.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) BorrowSafe() (Handle, error) {
	h := q.freeHead
	if h == nilIdx {
		return nilIdx, ErrFull
	}
	q.freeHead = q.arena[h].next

	n := &q.arena[h]
	n.priority, n.prev, n.next = unqueued, nilIdx, nilIdx
	return h, nil
}

// Return gives a handle back to the freelist. The thread must already be
// dequeued; returning a queued handle corrupts its level's chain.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Return(h Handle) error {
	if h >= CapThreads {
		return ErrBadHandle
	}
	n := &q.arena[h]
	if n.priority != unqueued {
		return ErrAlreadyQueued
	}
	n.next = q.freeHead
	n.prev = nilIdx
	n.data = 0
	q.freeHead = h
	return nil
}

// ============================================================================
// PAYLOAD ACCESS
// ============================================================================

// SetData stores the caller payload word for h. Queue operations never
// touch it.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) SetData(h Handle, v uint64) {
	q.arena[h].data = v
}

// Data returns the caller payload word for h.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Data(h Handle) uint64 {
	return q.arena[h].data
}

// Priority returns h's active level, or -1 when h is not queued.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Priority(h Handle) int32 {
	return q.arena[h].priority
}

// ============================================================================
// QUEUE METADATA ACCESS
// ============================================================================

// Size returns the number of currently queued threads.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Size() int {
	return q.size
}

// Empty reports whether no thread is queued at any level.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Empty() bool {
	return q.size == 0
}

// LevelEmpty reports whether priority level prio holds no thread.
// Matches the bitmap by construction.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) LevelEmpty(prio int32) bool {
	s := sentinelBase + Handle(prio)
	return q.arena[s].next == s
}

// ============================================================================
// PUBLIC API OPERATIONS
// ============================================================================

// Enqueue inserts h at the tail of level prio: immediately before the
// sentinel, preserving FIFO order among same-priority threads. Sets the
// level's bitmap bit (idempotent when already set).
//
// Caller contract: h < CapThreads, prio ∈ [0, NumPriorities), h not
// currently queued anywhere.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Enqueue(h Handle, prio int32) {
	s := sentinelBase + Handle(prio)
	n := &q.arena[h]

	last := q.arena[s].prev
	n.priority = prio
	n.prev, n.next = last, s
	q.arena[last].next = h
	q.arena[s].prev = h

	q.bitmap.Set(int(prio))
	q.size++
}

// EnqueueFront inserts h at the head of level prio: immediately after the
// sentinel, ahead of every thread already queued at that level. Used for
// threads that must run next regardless of FIFO age (short voluntary
// yields). Same caller contract as Enqueue.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) EnqueueFront(h Handle, prio int32) {
	s := sentinelBase + Handle(prio)
	n := &q.arena[h]

	first := q.arena[s].next
	n.priority = prio
	n.prev, n.next = s, first
	q.arena[first].prev = h
	q.arena[s].next = h

	q.bitmap.Set(int(prio))
	q.size++
}

// Dequeue splices h out of its level using its own links — O(1), no search.
// Clears the level's bitmap bit when the level empties, keeping the
// bit ⇔ non-empty invariant before returning.
//
// Caller contract: h is currently queued in this RunQueue.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) Dequeue(h Handle) {
	n := &q.arena[h]

	q.arena[n.prev].next = n.next
	q.arena[n.next].prev = n.prev

	lvl := n.priority
	s := sentinelBase + Handle(lvl)
	if q.arena[s].next == s {
		q.bitmap.Clear(int(lvl))
	}

	n.priority = unqueued
	n.prev, n.next = nilIdx, nilIdx
	q.size--
}

// PickNext returns the head of the highest-priority non-empty level without
// removing it. Peek semantics: the running thread stays logically in the
// queue; removal, if desired, is a subsequent Dequeue. ok=false is the
// defined "no runnable thread, go idle" outcome, not an error.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (q *RunQueue) PickNext() (Handle, int32, bool) {
	lvl := q.bitmap.FirstSet()
	if lvl == prioritybitmap.None {
		return nilIdx, unqueued, false
	}
	return q.arena[sentinelBase+Handle(lvl)].next, int32(lvl), true
}

// ============================================================================
// CHECKED VARIANTS
// ============================================================================

// EnqueueSafe is Enqueue with the caller contract validated: handle range,
// priority range, and not-already-queued. The checked path for lifecycle
// code; interrupt-driven paths use Enqueue.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (q *RunQueue) EnqueueSafe(h Handle, prio int32) error {
	if h >= CapThreads {
		return ErrBadHandle
	}
	if uint32(prio) >= NumPriorities {
		return ErrBadPriority
	}
	if q.arena[h].priority != unqueued {
		return ErrAlreadyQueued
	}
	q.Enqueue(h, prio)
	return nil
}

// EnqueueFrontSafe is EnqueueFront with the caller contract validated.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (q *RunQueue) EnqueueFrontSafe(h Handle, prio int32) error {
	if h >= CapThreads {
		return ErrBadHandle
	}
	if uint32(prio) >= NumPriorities {
		return ErrBadPriority
	}
	if q.arena[h].priority != unqueued {
		return ErrAlreadyQueued
	}
	q.EnqueueFront(h, prio)
	return nil
}

// DequeueSafe is Dequeue with membership asserted: the thread must be
// queued and its neighbors must agree that it is where it claims to be.
// Dequeuing a thread that is not in the queue is a contract violation the
// unchecked path cannot survive; this variant reports it instead.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func (q *RunQueue) DequeueSafe(h Handle) error {
	if h >= CapThreads {
		return ErrBadHandle
	}
	n := &q.arena[h]
	if n.priority == unqueued {
		return ErrNotQueued
	}
	if q.arena[n.prev].next != h || q.arena[n.next].prev != h {
		return ErrCorruptLinks
	}
	q.Dequeue(h)
	return nil
}
