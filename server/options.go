// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/pool"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger replaces the go-log sink.
func WithLogger(l api.EventLogger) ServerOption {
	return func(s *Server) {
		s.log = api.OrNop(l)
	}
}

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(reg *control.MetricsRegistry) ServerOption {
	return func(s *Server) {
		if reg != nil {
			s.metrics = reg
		}
	}
}

// WithBufferManager shares echo buffer pools with the caller.
func WithBufferManager(m *pool.Manager) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.buffers = m
		}
	}
}

// WithDatagramMode overrides Config.DatagramMode.
func WithDatagramMode(mode api.SchedulingMode) ServerOption {
	return func(s *Server) {
		s.cfg.DatagramMode = mode
	}
}

// WithFailFast overrides Config.FailFast.
func WithFailFast(on bool) ServerOption {
	return func(s *Server) {
		s.cfg.FailFast = on
	}
}
