//go:build !linux && !darwin
// +build !linux,!darwin

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package transport - stub for platforms without SO_REUSEPORT support.

package transport

import (
	"net"
	"net/netip"

	"github.com/momentics/hioload-echo/api"
)

// Provision is not supported on this platform.
func Provision(addr netip.AddrPort, kind api.Kind, count int, opts SocketOptions) ([]*Socket, error) {
	if count == 0 {
		return nil, nil
	}
	return nil, api.SetupError(kind, "provision", api.ErrNotSupported)
}

// Listener is not supported on this platform.
func Listener(s *Socket) (net.Listener, error) {
	return nil, api.ErrNotSupported
}

func closeFd(fd int) error { return api.ErrNotSupported }

// Classify reports every failure as fatal on this platform.
func Classify(err error) api.ErrorClass { return api.ClassFatal }

// IsTransient always reports false on this platform.
func IsTransient(err error) bool { return false }
