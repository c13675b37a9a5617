// Package prioritybitmap is a fixed-size priority bitset. One bit per
// priority level, lower level = higher priority, with a bounded word scan
// for find-first-set. This is the O(1) half of the run-queue dispatch path:
// "which is the highest-priority non-empty level" never touches the queues
// themselves.
package prioritybitmap

import (
	"math/bits"

	"main/constants"
)

const (
	// NumLevels is the number of priority levels the bitmap covers.
	NumLevels = constants.NumPriorities

	// NumWords is the number of 64-bit words backing the bitmap.
	NumWords = constants.NumPriorityWords

	// None is the FirstSet result when no level is marked runnable.
	None = NumLevels
)

// Bitmap marks which priority levels currently hold at least one runnable
// thread. The zero value is the empty bitmap; no constructor is needed.
//
// Level validity ([0, NumLevels)) is a caller invariant. Mutations must run
// under the same exclusion discipline as the queues the bits describe, or
// the bit⇔queue invariant is lost.
//
//go:notinheap
type Bitmap struct {
	words [NumWords]uint64
}

// Set marks level as having at least one runnable thread. Idempotent.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (b *Bitmap) Set(level int) {
	b.words[uint(level)>>6] |= 1 << (uint(level) & 63)
}

// Clear marks level as empty. Idempotent.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (b *Bitmap) Clear(level int) {
	b.words[uint(level)>>6] &^= 1 << (uint(level) & 63)
}

// Test reports whether level is marked runnable.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (b *Bitmap) Test(level int) bool {
	return b.words[uint(level)>>6]&(1<<(uint(level)&63)) != 0
}

// FirstSet returns the lowest-numbered marked level, or None when the bitmap
// is empty. The scan is bounded by NumWords, a compile-time constant, so the
// cost is independent of how many threads are queued.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (b *Bitmap) FirstSet() int {
	for w := 0; w < NumWords; w++ {
		if b.words[w] != 0 {
			return w<<6 | bits.TrailingZeros64(b.words[w])
		}
	}
	return None
}

// Empty reports whether no level is marked.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (b *Bitmap) Empty() bool {
	var or uint64
	for w := 0; w < NumWords; w++ {
		or |= b.words[w]
	}
	return or == 0
}

// Reset clears every level in one pass. Used at run-queue initialization.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (b *Bitmap) Reset() {
	for w := 0; w < NumWords; w++ {
		b.words[w] = 0
	}
}
