// control.go — Global control flags and activity management for dispatch loops
// ============================================================================
// SYSTEM CONTROL ORCHESTRATION
// ============================================================================
//
// Control package provides lightweight global signaling infrastructure for
// coordinating activity states and graceful shutdown across pinned dispatch
// threads with nanosecond-precision timing and zero-allocation operations.
//
// Architecture overview:
//   • Global hot/stop flags for lock-free inter-thread communication
//   • Nanosecond-precision activity tracking with automatic cooldown
//   • Zero-allocation flag access for hot path performance
//   • Graceful shutdown coordination across all dispatch cores
//
// Threading model:
//   • Dispatch loops signal runnable work via SignalActivity()
//   • The trace harvester polls flags via Flags() for coordination
//   • Automatic cooldown prevents unnecessary hot spinning on idle queues
//   • Graceful shutdown ensures trace buffers drain before exit

package control

import "time"

// ============================================================================
// GLOBAL STATE MANAGEMENT
// ============================================================================

var (
	// Global coordination flags - accessed by all dispatch threads
	hot  uint32 // Activity indicator: 1 = runnable threads present, 0 = idle
	stop uint32 // Shutdown signal: 1 = initiate graceful shutdown, 0 = running

	// Activity timing for automatic cooldown management
	lastHot    int64                    // Nanosecond timestamp of last dispatch activity
	cooldownNs = int64(1 * time.Second) // Cooldown duration: 1 second idle period
)

// ============================================================================
// ACTIVITY SIGNALING (DISPATCH INTEGRATION)
// ============================================================================

// SignalActivity marks the system as active and records precise timing for
// automatic cooldown management. Called from dispatch loops whenever a pick
// returns a runnable thread or a lifecycle event enqueues one.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func SignalActivity() {
	hot = 1
	lastHot = time.Now().UnixNano()
}

// ForceHot pins the hot flag without touching the activity clock. Used at
// startup so consumers begin in the hot-spin path before the first tick.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func ForceHot() {
	hot = 1
	lastHot = time.Now().UnixNano()
}

// ============================================================================
// COOLDOWN MANAGEMENT (AUTOMATIC EFFICIENCY)
// ============================================================================

// PollCooldown implements automatic hot-flag clearance based on elapsed time
// since last activity. Integrates into dispatch idle paths to stop burning
// cycles when every run queue is empty.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func PollCooldown() {
	if hot == 1 && time.Now().UnixNano()-lastHot > cooldownNs {
		hot = 0
	}
}

// ============================================================================
// SYSTEM SHUTDOWN (GRACEFUL TERMINATION)
// ============================================================================

// Shutdown initiates graceful system termination by setting the global stop
// flag. Dispatch loops and the trace harvester monitor this flag and
// terminate cleanly upon detection.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Shutdown() {
	stop = 1
}

// Stopping reports whether shutdown has been requested. Convenience for
// code outside the pointer-polling hot loops.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Stopping() bool {
	return stop == 1
}

// ============================================================================
// FLAG ACCESS (CONSUMER INTEGRATION)
// ============================================================================

// Flags returns direct pointers to global coordination flags for
// zero-allocation access by pinned dispatch threads. Enables efficient
// polling without function call overhead in performance-critical loops.
//
// Return values: (*stop_flag, *hot_flag) for PinnedConsumer integration
// Memory safety: Returned pointers remain valid for application lifetime
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Flags() (*uint32, *uint32) {
	return &stop, &hot
}
