// Package transport
// Author: momentics <momentics@gmail.com>
//
// Listen address resolution and address family selection.

package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/momentics/hioload-echo/api"
)

// ResolveListenAddr turns "host:port" into exactly one concrete address.
// When the host resolves to several addresses the first one is used.
func ResolveListenAddr(ctx context.Context, address string) (netip.AddrPort, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: listen address %q: %v", api.ErrInvalidArgument, address, err)
	}

	port, err := resolvePort(ctx, portStr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: listen address %q: %v", api.ErrInvalidArgument, address, err)
	}

	if host == "" {
		return netip.AddrPortFrom(netip.IPv4Unspecified(), port), nil
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(ip.Unmap(), port), nil
	}

	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("resolve %q: %w", host, err)
	}
	if len(ips) == 0 {
		return netip.AddrPort{}, fmt.Errorf("resolve %q: no addresses", host)
	}
	return netip.AddrPortFrom(ips[0].Unmap(), port), nil
}

func resolvePort(ctx context.Context, s string) (uint16, error) {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return uint16(n), nil
	}
	n, err := net.DefaultResolver.LookupPort(ctx, "tcp", s)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// Family is the IP version of a listen address.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// Domain returns the address family a socket for addr must be created in.
func Domain(addr netip.AddrPort) Family {
	if addr.Addr().Is4() {
		return IPv4
	}
	return IPv6
}
