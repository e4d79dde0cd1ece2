// Package api
// Author: momentics
//
// Counters and probes used for fan-out diagnostics.

package api

// Debug exposes runtime introspection of a running server.
type Debug interface {
	// DumpState emits a snapshot of probe values.
	DumpState() map[string]any

	// RegisterProbe registers a named probe evaluated on every DumpState.
	RegisterProbe(name string, fn func() any)
}

// Metrics receives per-worker counters.
type Metrics interface {
	// Add increments the counter named key by delta.
	Add(key string, delta int64)
}

// NopMetrics discards every counter update.
type NopMetrics struct{}

func (NopMetrics) Add(string, int64) {}
