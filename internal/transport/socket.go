// Package transport
// Author: momentics <momentics@gmail.com>

package transport

import (
	"fmt"
	"net/netip"
	"sync/atomic"

	"github.com/momentics/hioload-echo/api"
)

// Socket is one provisioned OS socket. It is owned by exactly one worker,
// which must Close it (or hand the descriptor over with Detach).
type Socket struct {
	kind    api.Kind
	ordinal int
	opts    SocketOptions
	fd      int
	local   netip.AddrPort
	closed  atomic.Bool
}

// Kind returns the transport of the socket.
func (s *Socket) Kind() api.Kind { return s.kind }

// Ordinal identifies the socket among its siblings (0..N-1).
func (s *Socket) Ordinal() int { return s.ordinal }

// Options returns the options the socket was provisioned with.
func (s *Socket) Options() SocketOptions { return s.opts }

// Fd returns the raw descriptor.
func (s *Socket) Fd() int { return s.fd }

// LocalAddr returns the bound address as reported by getsockname.
func (s *Socket) LocalAddr() netip.AddrPort { return s.local }

// Close releases the descriptor. Subsequent calls return nil.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return closeFd(s.fd)
}

// Closed reports whether Close or Detach has been called.
func (s *Socket) Closed() bool { return s.closed.Load() }

// Detach marks the socket closed without touching the descriptor. The caller
// takes over ownership of the returned fd.
func (s *Socket) Detach() (int, error) {
	if !s.closed.CompareAndSwap(false, true) {
		return -1, api.ErrSocketClosed
	}
	return s.fd, nil
}

func (s *Socket) String() string {
	return fmt.Sprintf("%s#%d fd=%d %s", s.kind, s.ordinal, s.fd, s.local)
}
