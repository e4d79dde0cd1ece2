// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, debug introspection and logging sinks for the echo engine.
//
// Provides concurrent-safe primitives including:
//   - Per-worker counters used to observe kernel fan-out
//   - Named debug probes evaluated on demand
//   - A bounded journal of recent per-request failures
//   - A go-log backed api.EventLogger
package control
