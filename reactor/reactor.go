// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral event reactor interface.

package reactor

// FDEventType is a bit set of readiness conditions.
type FDEventType uint32

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
	// EventEdge requests edge-triggered delivery on registration.
	EventEdge
)

// FDCallback is invoked from Poll for each ready descriptor.
type FDCallback func(fd uintptr, events FDEventType)

// Reactor multiplexes readiness of registered descriptors.
// Poll must be driven by a single goroutine.
type Reactor interface {
	// Register adds fd to the watch list with the given interest.
	Register(fd uintptr, events FDEventType, cb FDCallback) error

	// Unregister removes fd from the watch list.
	Unregister(fd uintptr) error

	// Poll waits up to timeoutMs (negative blocks) and dispatches callbacks.
	// It returns the number of callbacks run.
	Poll(timeoutMs int) (int, error)

	// Close releases the reactor.
	Close() error
}
