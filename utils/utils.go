package utils

import "syscall"

///////////////////////////////////////////////////////////////////////////////
// Diagnostics Output — Direct fd 2 Writes
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to stderr (file descriptor 2), bypassing
// the log package and its locking/formatting machinery. Used by the debug
// package for cold-path diagnostics only.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	_, _ = syscall.Write(2, []byte(msg))
}

///////////////////////////////////////////////////////////////////////////////
// Integer Formatting — Zero-Dependency Itoa
///////////////////////////////////////////////////////////////////////////////

// Itoa converts an int to its decimal string without strconv. Fixed 20-byte
// scratch covers the full int64 range plus sign.
//
//go:nosplit
//go:inline
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Utoa is the unsigned companion of Itoa, used for handle and tick values.
//
//go:nosplit
//go:inline
func Utoa(u uint64) string {
	if u == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers — Workload Scrambling
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Used to decorrelate synthetic workload priorities from thread indices.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
