//go:build linux || darwin
// +build linux darwin

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package transport - socket provisioning on Unix-like systems.

package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"

	"github.com/momentics/hioload-echo/api"
	"golang.org/x/sys/unix"
)

// Provision creates count sockets of kind, all bound to addr with opts.
// Any failure closes the sockets created so far and returns a setup error.
// When addr carries port 0, the first socket picks a port and its siblings
// bind the same one so that they form a single reuse-port group.
func Provision(addr netip.AddrPort, kind api.Kind, count int, opts SocketOptions) ([]*Socket, error) {
	if count < 0 {
		return nil, api.SetupError(kind, "provision", fmt.Errorf("%w: negative socket count %d", api.ErrInvalidArgument, count))
	}
	if count == 0 {
		return nil, nil
	}
	if !addr.IsValid() {
		return nil, api.SetupError(kind, "provision", fmt.Errorf("%w: listen address not set", api.ErrInvalidArgument))
	}

	sockets := make([]*Socket, 0, count)
	bindAddr := addr
	for ordinal := 0; ordinal < count; ordinal++ {
		s, err := openSocket(bindAddr, kind, ordinal, opts)
		if err != nil {
			for _, prev := range sockets {
				_ = prev.Close()
			}
			return nil, err
		}
		sockets = append(sockets, s)
		if bindAddr.Port() == 0 {
			bindAddr = netip.AddrPortFrom(bindAddr.Addr(), s.local.Port())
		}
	}
	return sockets, nil
}

func openSocket(addr netip.AddrPort, kind api.Kind, ordinal int, opts SocketOptions) (*Socket, error) {
	family := unix.AF_INET6
	if Domain(addr) == IPv4 {
		family = unix.AF_INET
	}
	typ := unix.SOCK_DGRAM
	if kind == api.Stream {
		typ = unix.SOCK_STREAM
	}

	fd, err := unix.Socket(family, typ, 0)
	if err != nil {
		return nil, api.NewError(api.ClassSetup, kind, "socket", ordinal, os.NewSyscallError("socket", err))
	}
	unix.CloseOnExec(fd)

	fail := func(op string, err error) (*Socket, error) {
		_ = unix.Close(fd)
		return nil, api.NewError(api.ClassSetup, kind, op, ordinal, err)
	}

	if opts.ReuseAddress {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fail("setsockopt SO_REUSEADDR", os.NewSyscallError("setsockopt", err))
		}
	}
	if opts.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return fail("setsockopt SO_REUSEPORT", os.NewSyscallError("setsockopt", err))
		}
	}
	if opts.ReceiveTimeout > 0 {
		tv := unix.NsecToTimeval(opts.ReceiveTimeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return fail("setsockopt SO_RCVTIMEO", os.NewSyscallError("setsockopt", err))
		}
	}
	if err := unix.SetNonblock(fd, opts.NonBlocking); err != nil {
		return fail("set nonblocking", os.NewSyscallError("fcntl", err))
	}

	sa, err := toSockaddr(addr)
	if err != nil {
		return fail("bind", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fail("bind", fmt.Errorf("%s: %w", addr, os.NewSyscallError("bind", err)))
	}
	if kind == api.Stream {
		backlog := opts.Backlog
		if backlog <= 0 {
			backlog = DefaultBacklog
		}
		if err := unix.Listen(fd, backlog); err != nil {
			return fail("listen", os.NewSyscallError("listen", err))
		}
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		return fail("getsockname", os.NewSyscallError("getsockname", err))
	}

	return &Socket{
		kind:    kind,
		ordinal: ordinal,
		opts:    opts,
		fd:      fd,
		local:   AddrPortFromSockaddr(bound),
	}, nil
}

// Listener hands the descriptor of a stream socket over to the runtime
// poller and returns it as a net.Listener. The socket is detached.
func Listener(s *Socket) (net.Listener, error) {
	if s.Kind() != api.Stream {
		return nil, fmt.Errorf("%w: %s socket is not a listener", api.ErrInvalidArgument, s.Kind())
	}
	fd, err := s.Detach()
	if err != nil {
		return nil, err
	}
	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp-listener-%d", s.Ordinal()))
	defer f.Close()
	return net.FileListener(f)
}

func closeFd(fd int) error {
	return unix.Close(fd)
}

func toSockaddr(addr netip.AddrPort) (unix.Sockaddr, error) {
	ip := addr.Addr()
	if ip.Is4() {
		return &unix.SockaddrInet4{Port: int(addr.Port()), Addr: ip.As4()}, nil
	}
	sa := &unix.SockaddrInet6{Port: int(addr.Port()), Addr: ip.As16()}
	if zone := ip.Zone(); zone != "" {
		ifi, err := net.InterfaceByName(zone)
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", zone, err)
		}
		sa.ZoneId = uint32(ifi.Index)
	}
	return sa, nil
}

// AddrPortFromSockaddr converts an inet sockaddr. Other families map to the
// zero AddrPort.
func AddrPortFromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port))
	}
	return netip.AddrPort{}
}

// Classify maps a failed call on a worker's own socket to its error class:
// would-block and interrupted calls are transient, anything else is fatal.
func Classify(err error) api.ErrorClass {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
		return api.ClassTransient
	}
	return api.ClassFatal
}

// IsTransient reports whether err is a would-block or interrupted condition.
func IsTransient(err error) bool {
	return Classify(err) == api.ClassTransient
}
