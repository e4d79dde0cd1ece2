// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_stub.go) guarded by build tags.

package affinity

import "runtime"

// SetAffinity pins the calling OS thread to cpuID. The caller must hold the
// thread with runtime.LockOSThread for the pin to mean anything.
// On unsupported platforms returns an error.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// CPUForOrdinal spreads worker ordinals round-robin over the available CPUs.
func CPUForOrdinal(ordinal int) int {
	n := runtime.NumCPU()
	if ordinal < 0 {
		ordinal = -ordinal
	}
	return ordinal % n
}
