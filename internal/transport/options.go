// Package transport
// Author: momentics <momentics@gmail.com>

package transport

import (
	"time"

	"github.com/momentics/hioload-echo/api"
)

// DefaultBacklog is the listen(2) backlog applied to stream sockets.
const DefaultBacklog = 1024

// SocketOptions is applied uniformly by Provision to every socket of a transport.
type SocketOptions struct {
	ReuseAddress bool
	ReusePort    bool
	NonBlocking  bool
	Backlog      int // stream only

	// ReceiveTimeout sets SO_RCVTIMEO on blocking sockets. Zero leaves it unset.
	ReceiveTimeout time.Duration
}

// StreamOptions returns the options used for listening sockets.
func StreamOptions() SocketOptions {
	return SocketOptions{
		ReuseAddress: true,
		ReusePort:    true,
		NonBlocking:  true,
		Backlog:      DefaultBacklog,
	}
}

// DatagramOptions returns the options used for datagram sockets driven by mode.
// The dedicated-thread variant keeps the socket blocking and wakes up
// periodically so that shutdown is observed.
func DatagramOptions(mode api.SchedulingMode) SocketOptions {
	opts := SocketOptions{
		ReuseAddress: true,
		ReusePort:    true,
		NonBlocking:  true,
	}
	if mode == api.ModeDedicatedThread {
		opts.NonBlocking = false
		opts.ReceiveTimeout = 200 * time.Millisecond
	}
	return opts
}

// OptionsFor returns the default options for kind.
func OptionsFor(kind api.Kind, mode api.SchedulingMode) SocketOptions {
	if kind == api.Stream {
		return StreamOptions()
	}
	return DatagramOptions(mode)
}
