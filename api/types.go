// Package api
// Author: momentics <momentics@gmail.com>
//
// Transport and scheduling enumerations.

package api

import "fmt"

// Kind is the transport a socket speaks.
type Kind int

const (
	Stream   Kind = iota // TCP
	Datagram             // UDP

	// AnyKind marks failures that precede the choice of a transport.
	AnyKind Kind = -1
)

func (k Kind) String() string {
	switch k {
	case Stream:
		return "tcp"
	case Datagram:
		return "udp"
	case AnyKind:
		return "echo"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SchedulingMode selects how a datagram worker waits for traffic.
type SchedulingMode int

const (
	// ModeDedicatedThread pins the worker to one OS thread doing blocking I/O.
	ModeDedicatedThread SchedulingMode = iota
	// ModeReadiness waits for readable notifications and spawns a task per event.
	ModeReadiness
)

func (m SchedulingMode) String() string {
	switch m {
	case ModeDedicatedThread:
		return "thread"
	case ModeReadiness:
		return "readiness"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseSchedulingMode accepts the names produced by String.
func ParseSchedulingMode(s string) (SchedulingMode, error) {
	switch s {
	case "thread", "blocking":
		return ModeDedicatedThread, nil
	case "readiness", "poll":
		return ModeReadiness, nil
	}
	return 0, fmt.Errorf("%w: unknown scheduling mode %q", ErrInvalidArgument, s)
}
