// ════════════════════════════════════════════════════════════════════════════════════════════════
// Per-CPU Scheduler Core
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: O(1) Teaching-Kernel Scheduler
// Component: Per-CPU Scheduling Contexts & Entry Points
//
// Description:
//   One explicit scheduling context per CPU: the CPU's run queue, its thread priority table,
//   and its interrupt-enable state. Every mutation of a CPU's run queue executes between
//   IRQSave and IRQRestore, the simulated equivalent of masking local interrupts around the
//   splice: a bounded, non-blocking sequence of pointer and bit operations, with the prior
//   enable state restored on every exit path.
//
// Threading model:
//   - A CPU context is confined to one pinned dispatch thread once dispatch starts; seeding
//     happens before that thread exists. There is no cross-CPU sharing of scheduler state —
//     the hazard being modeled is same-CPU re-entry from the tick handler, and the tick
//     handler consults IRQMasked before delivering.
//   - Cross-CPU migration is deliberately absent: a handle is borrowed from one CPU's arena
//     and stays affine to that CPU for its lifetime.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package sched

import (
	"errors"

	"main/constants"
	"main/runqueue"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ERRORS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

var (
	ErrBadCPU      = errors.New("sched: cpu id out of range")
	ErrBadPriority = errors.New("sched: priority out of range")
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PER-CPU CONTEXT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// CPU is one core's complete scheduling context. It owns its run queue for
// the process lifetime; nothing here is global or shared between cores.
type CPU struct {
	id        int                  // Stable per-CPU identifier
	rq        *runqueue.RunQueue   // This core's run queue
	irqMasked bool                 // Simulated local interrupt-enable state (true = masked)
	prios     [runqueue.CapThreads]int32 // Assigned priority per arena slot
}

// ID returns the stable per-CPU identifier, 0..NumCPUs.
func (c *CPU) ID() int { return c.id }

// RunQueue exposes the underlying queue for trace snapshots and tests.
// Production paths go through the entry points below.
func (c *CPU) RunQueue() *runqueue.RunQueue { return c.rq }

// ───────────────────────────── Interrupt Discipline ────────────────────────

// IRQSave masks the simulated local interrupts and returns the prior enable
// state. Pairs with IRQRestore; nests, because the saved state travels with
// the caller rather than living in the flag.
//
//go:nosplit
//go:inline
func (c *CPU) IRQSave() bool {
	prev := c.irqMasked
	c.irqMasked = true
	return prev
}

// IRQRestore restores the interrupt-enable state captured by IRQSave.
//
//go:nosplit
//go:inline
func (c *CPU) IRQRestore(prev bool) {
	c.irqMasked = prev
}

// IRQMasked reports whether the simulated local interrupts are masked.
// The dispatch tick handler checks this before delivering a tick.
//
//go:nosplit
//go:inline
func (c *CPU) IRQMasked() bool {
	return c.irqMasked
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// THREAD LIFECYCLE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Spawn creates a thread on this CPU: borrows an arena handle, records its
// priority, stores the payload word, and enqueues it at the tail of its
// level. Checked path — lifecycle code is not interrupt context.
func (c *CPU) Spawn(prio int32, payload uint64) (runqueue.Handle, error) {
	if uint32(prio) >= runqueue.NumPriorities {
		return 0, ErrBadPriority
	}

	flags := c.IRQSave()
	h, err := c.rq.BorrowSafe()
	if err != nil {
		c.IRQRestore(flags)
		return 0, err
	}
	c.prios[h] = prio
	c.rq.SetData(h, payload)
	if err := c.rq.EnqueueSafe(h, prio); err != nil {
		_ = c.rq.Return(h)
		c.IRQRestore(flags)
		return 0, err
	}
	c.IRQRestore(flags)
	return h, nil
}

// Exit removes a thread from scheduling entirely and recycles its handle.
// Safe to call whether or not the thread is currently queued.
func (c *CPU) Exit(h runqueue.Handle) error {
	flags := c.IRQSave()
	if c.rq.Priority(h) != -1 {
		if err := c.rq.DequeueSafe(h); err != nil {
			c.IRQRestore(flags)
			return err
		}
	}
	err := c.rq.Return(h)
	c.IRQRestore(flags)
	return err
}

// SetPriority reassigns a thread's priority. If the thread is queued it is
// respliced at the tail of its new level inside one critical section.
func (c *CPU) SetPriority(h runqueue.Handle, prio int32) error {
	if uint32(prio) >= runqueue.NumPriorities {
		return ErrBadPriority
	}
	flags := c.IRQSave()
	queued := c.rq.Priority(h) != -1
	if queued {
		if err := c.rq.DequeueSafe(h); err != nil {
			c.IRQRestore(flags)
			return err
		}
	}
	c.prios[h] = prio
	if queued {
		c.rq.Enqueue(h, prio)
	}
	c.IRQRestore(flags)
	return nil
}

// Priority returns the thread's assigned priority level.
func (c *CPU) Priority(h runqueue.Handle) int32 {
	return c.prios[h]
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SCHEDULER ENTRY POINTS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Enqueue makes a thread runnable at the tail of its assigned level.
// Called on wake and on time-slice expiry requeue.
func (c *CPU) Enqueue(h runqueue.Handle) {
	flags := c.IRQSave()
	c.rq.Enqueue(h, c.prios[h])
	c.IRQRestore(flags)
}

// EnqueueFront makes a thread runnable at the head of its assigned level,
// ahead of FIFO order. Used when a thread gives up the CPU briefly but must
// run next (short voluntary yield).
func (c *CPU) EnqueueFront(h runqueue.Handle) {
	flags := c.IRQSave()
	c.rq.EnqueueFront(h, c.prios[h])
	c.IRQRestore(flags)
}

// Dequeue removes a runnable thread from its level (block, sleep).
func (c *CPU) Dequeue(h runqueue.Handle) {
	flags := c.IRQSave()
	c.rq.Dequeue(h)
	c.IRQRestore(flags)
}

// PickNextTask returns the highest-priority runnable thread on this CPU
// without removing it, or ok=false when every level is empty and the
// dispatch path must take its idle route.
func (c *CPU) PickNextTask() (runqueue.Handle, int32, bool) {
	flags := c.IRQSave()
	h, prio, ok := c.rq.PickNext()
	c.IRQRestore(flags)
	return h, prio, ok
}

// Requeue moves a thread from wherever it sits to the tail of its level in
// one critical section: the time-slice-expiry rotation that round-robins
// same-priority threads.
func (c *CPU) Requeue(h runqueue.Handle) {
	flags := c.IRQSave()
	c.rq.Dequeue(h)
	c.rq.Enqueue(h, c.prios[h])
	c.IRQRestore(flags)
}

// YieldFront moves a thread to the head of its level in one critical
// section: a voluntary short yield that must not lose its turn.
func (c *CPU) YieldFront(h runqueue.Handle) {
	flags := c.IRQSave()
	c.rq.Dequeue(h)
	c.rq.EnqueueFront(h, c.prios[h])
	c.IRQRestore(flags)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SCHEDULER (ALL CPUS)
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Scheduler owns one CPU context per core, constructed up front at startup.
// There is no hidden global state: everything a core schedules with hangs
// off its context.
type Scheduler struct {
	cpus []*CPU
}

// New constructs numCPUs initialized scheduling contexts, each with an
// empty run queue and a zeroed bitmap.
func New(numCPUs int) *Scheduler {
	s := &Scheduler{cpus: make([]*CPU, numCPUs)}
	for i := range s.cpus {
		s.cpus[i] = &CPU{id: i, rq: runqueue.New()}
	}
	return s
}

// NewDefault constructs the compile-time default geometry.
func NewDefault() *Scheduler {
	return New(constants.NumCPUs)
}

// CPU returns the scheduling context for the given core id.
func (s *Scheduler) CPU(id int) *CPU {
	return s.cpus[id]
}

// NumCPUs returns the number of constructed contexts.
func (s *Scheduler) NumCPUs() int {
	return len(s.cpus)
}
