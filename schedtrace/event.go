// event.go — packed 24-byte scheduling-trace record.
//
// One Event is exactly one ring slot payload. The layout is three aligned
// 64-bit words so producer-side packing is a handful of shifts and the
// ring copy is memcpy-friendly:
//
//   word 0: tick      — dispatch loop's tick counter at emission
//   word 1: meta      — kind<<56 | cpu<<48 | priority<<32 | handle
//   word 2: data      — thread payload word at emission time
//
// Events are observability, never control flow: a full ring drops the
// record and increments a counter, it never stalls a dispatch loop.

package schedtrace

import "unsafe"

// Kind identifies which scheduler transition an event records.
type Kind uint8

const (
	KindSpawn        Kind = iota + 1 // thread created and enqueued
	KindEnqueue                      // tail enqueue (wake, slice rotation target)
	KindEnqueueFront                 // head enqueue (short voluntary yield)
	KindDequeue                      // removed from its level (block)
	KindPick                         // chosen by pick_next and ran one tick
	KindRequeue                      // slice expiry rotation to level tail
	KindYield                        // moved to level head in one section
	KindExit                         // thread finished, handle recycled
	KindIdle                         // pick found no runnable thread
)

// kindNames is indexed by Kind for manifest totals and logs.
var kindNames = [...]string{
	"", "spawn", "enqueue", "enqueue_front", "dequeue",
	"pick", "requeue", "yield", "exit", "idle",
}

// String returns the manifest name for k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is the in-memory view of one trace record.
//
//go:notinheap
type Event struct {
	Tick uint64 // Dispatch tick counter
	Meta uint64 // Packed kind/cpu/priority/handle
	Data uint64 // Thread payload word
}

// Pack builds the meta word from its fields.
//
//go:nosplit
//go:inline
func Pack(kind Kind, cpu uint8, prio int32, handle uint32) uint64 {
	return uint64(kind)<<56 | uint64(cpu)<<48 | uint64(uint16(prio))<<32 | uint64(handle)
}

// Kind extracts the event kind from the meta word.
//
//go:nosplit
//go:inline
func (e *Event) Kind() Kind { return Kind(e.Meta >> 56) }

// CPU extracts the originating core id.
//
//go:nosplit
//go:inline
func (e *Event) CPU() uint8 { return uint8(e.Meta >> 48) }

// Priority extracts the priority level, or -1 for idle records.
//
//go:nosplit
//go:inline
func (e *Event) Priority() int32 { return int32(int16(e.Meta >> 32)) }

// Handle extracts the arena handle.
//
//go:nosplit
//go:inline
func (e *Event) Handle() uint32 { return uint32(e.Meta) }

// Bytes reinterprets the event as a ring payload. Valid because Event is
// exactly 24 bytes of 8-aligned words, matching the ring slot layout.
//
//go:nosplit
//go:inline
func (e *Event) Bytes() *[24]byte {
	return (*[24]byte)(unsafe.Pointer(e))
}

// FromBytes reinterprets a ring payload as an event. The result aliases p
// and follows p's validity rules (until the next Pop on that ring).
//
//go:nosplit
//go:inline
func FromBytes(p *[24]byte) *Event {
	return (*Event)(unsafe.Pointer(p))
}
