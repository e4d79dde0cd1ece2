// Package echo
// Author: momentics <momentics@gmail.com>

package echo

import (
	"fmt"

	"github.com/momentics/hioload-echo/api"
)

const (
	// DefaultStreamBufferSize is the per-connection scratch buffer.
	DefaultStreamBufferSize = 16 * 1024
	// DefaultDatagramBufferSize fits the largest UDP payload.
	DefaultDatagramBufferSize = 64 * 1024
	// MinDatagramBufferSize is the largest UDP payload over IPv6 without
	// jumbograms (65535 minus the UDP header). Smaller buffers truncate.
	MinDatagramBufferSize = 65535 - 8
)

// CounterKey names a per-worker counter, e.g. "tcp.3.accepted".
func CounterKey(kind api.Kind, ordinal int, name string) string {
	return fmt.Sprintf("%s.%d.%s", kind, ordinal, name)
}

func orNopMetrics(m api.Metrics) api.Metrics {
	if m == nil {
		return api.NopMetrics{}
	}
	return m
}
