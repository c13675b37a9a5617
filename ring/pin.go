// pin.go
//
// Exported thread-pinning helpers for loops that live outside this package
// (the dispatch loops). Same mechanics PinnedConsumer uses internally.

package ring

import "runtime"

// Pin locks the calling goroutine to its OS thread and binds that thread to
// the given core. Pair with Unpin on exit.
func Pin(core int) {
	runtime.LockOSThread()
	setAffinity(core)
}

// Unpin releases the OS-thread lock taken by Pin. The affinity mask is left
// in place; the thread returns to the runtime's pool pinned, which is
// harmless for exiting loops.
func Unpin() {
	runtime.UnlockOSThread()
}
