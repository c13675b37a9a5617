// ============================================================================
// LOCK-FREE SPSC TRACE RING
// ============================================================================
//
// Single-producer/single-consumer ring buffer carrying fixed 24-byte
// scheduling-trace records from a pinned dispatch thread to the trace
// harvester. One ring per CPU; the dispatch loop is the only producer and
// the harvester's pinned consumer is the only reader.
//
// Architecture overview:
//   - Separated head/tail cursors on isolated cache lines
//   - Sequence-based slot availability signaling
//   - Power-of-2 sizing with bit masking for O(1) operations
//   - Zero allocation during steady-state operation
//
// Safety model:
//   - SPSC discipline required: single producer, single consumer only
//   - Push returns false when full; the producer decides drop policy
//     (trace events are observability, never back-pressure on dispatch)
//   - Pop results are valid until the next Pop on the same ring
//
// Compiler optimizations:
//   - //go:nosplit for stack management elimination
//   - //go:inline for call overhead reduction
//   - //go:registerparams for register-based parameter passing

package ring

import "sync/atomic"

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// slot couples a 24-byte payload with its sequence stamp; 32 bytes total so
// two slots share a cache line cleanly.
//
// Sequence semantics:
//   - Producer: sets seq = position + 1 when data is ready
//   - Consumer: expects seq = position + 1 for available data
//   - Reset: consumer sets seq = position + ring size for reuse
//
//go:notinheap
//go:align 64
type slot struct {
	val [24]byte // Fixed-size payload data
	seq uint64   // Sequence number for availability signaling
}

// Ring is a cache-isolated SPSC ring. Producer and consumer cursors live on
// separate cache lines so the two sides never false-share.
//
//go:notinheap
//go:align 64
type Ring struct {
	_    [64]byte // Cache line isolation for head cursor
	head uint64   // Consumer read position

	_    [56]byte // Cache line isolation for tail cursor
	tail uint64   // Producer write position

	_ [56]byte // Isolation before shared metadata

	mask uint64 // Size - 1 for modulo via bit masking
	step uint64 // Ring size for sequence reset calculations
	buf  []slot // Backing buffer

	_ [3]uint64 // Tail padding
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

// New creates a ring with the given capacity, which must be a positive
// power of two so the bit-masking arithmetic stays valid.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:registerparams
func New(size int) *Ring {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring: size must be >0 and power of two")
	}

	r := &Ring{
		mask: uint64(size - 1),
		step: uint64(size),
		buf:  make([]slot, size),
	}
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
	return r
}

// ============================================================================
// PRODUCER OPERATIONS
// ============================================================================

// Push enqueues one 24-byte record, returning false when the ring is full.
// The payload is copied; the caller may reuse val immediately.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (r *Ring) Push(val *[24]byte) bool {
	t := r.tail
	s := &r.buf[t&r.mask]

	if atomic.LoadUint64(&s.seq) != t {
		return false // consumer has not yet reclaimed the slot
	}

	s.val = *val
	atomic.StoreUint64(&s.seq, t+1)
	r.tail = t + 1
	return true
}

// ============================================================================
// CONSUMER OPERATIONS
// ============================================================================

// Pop dequeues one record or returns nil when the ring is empty. The
// returned pointer aliases the slot and stays valid until the next Pop.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (r *Ring) Pop() *[24]byte {
	h := r.head
	s := &r.buf[h&r.mask]

	if atomic.LoadUint64(&s.seq) != h+1 {
		return nil // producer has not filled the slot
	}

	val := &s.val
	atomic.StoreUint64(&s.seq, h+r.step)
	r.head = h + 1
	return val
}
