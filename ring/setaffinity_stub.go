//go:build !linux || tinygo

// setaffinity_stub.go
//
// No-op CPU affinity for platforms without sched_setaffinity(2). Keeps the
// API surface identical so higher-level code needs no conditional
// compilation; the only cost is losing the pin.

package ring

// setAffinity is a no-op on unsupported platforms.
//
//go:nosplit
//go:inline
func setAffinity(cpu int) {}
