// File: server/debug.go
// Author: momentics <momentics@gmail.com>

package server

import (
	"github.com/momentics/hioload-echo/control"
)

func (s *Server) registerProbes() {
	control.RegisterPlatformProbes(s.probes)
	s.probes.RegisterProbe("workers.stream", func() any { return s.cfg.StreamWorkers })
	s.probes.RegisterProbe("workers.datagram", func() any { return s.cfg.DatagramWorkers })
	s.probes.RegisterProbe("workers.datagram_mode", func() any { return s.cfg.DatagramMode.String() })
	s.probes.RegisterProbe("addr.stream", func() any { return addrString(s.StreamAddr()) })
	s.probes.RegisterProbe("addr.datagram", func() any { return addrString(s.DatagramAddr()) })
	s.probes.RegisterProbe("journal.total", func() any { return s.journal.Total() })
	s.probes.RegisterProbe("journal.recent", func() any {
		entries := s.journal.Entries()
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.String()
		}
		return out
	})
}

// DumpState returns all probe values. It implements api.Debug.
func (s *Server) DumpState() map[string]any {
	return s.probes.DumpState()
}

// RegisterProbe adds a probe reported by DumpState and Stats.
func (s *Server) RegisterProbe(name string, fn func() any) {
	s.probes.RegisterProbe(name, fn)
}

// Stats merges counters with probe output, probes prefixed by "debug.".
func (s *Server) Stats() map[string]any {
	combined := s.metrics.GetSnapshot()
	for k, v := range s.probes.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func addrString(a interface{ String() string }) string {
	if a == nil {
		return ""
	}
	return a.String()
}
