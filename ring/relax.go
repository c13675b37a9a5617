// relax.go
//
// Portable back-off hint for busy-wait loops. Tuned builds would emit a
// single PAUSE (x86) or WFE (arm64) here from an assembly stub; the pure-Go
// tree keeps a no-op so every target compiles unchanged and the spin loops
// stay correct, just less polite.

package ring

// cpuRelax is a no-op on the portable build.
//
//go:nosplit
//go:inline
func cpuRelax() {}
