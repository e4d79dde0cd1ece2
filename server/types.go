package server

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/echo"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
)

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr         string             // bind address, e.g. "0.0.0.0:7"; first resolved candidate wins
	StreamWorkers      int                // TCP sockets sharing ListenAddr (0 = none)
	DatagramWorkers    int                // UDP sockets sharing ListenAddr (0 = none)
	DatagramMode       api.SchedulingMode // dedicated thread or readiness-driven
	Backlog            int                // listen(2) backlog for stream sockets
	StreamBufferSize   int                // per-connection echo buffer
	DatagramBufferSize int                // per-task datagram echo buffer, at least echo.MinDatagramBufferSize
	FailFast           bool               // stop every worker after the first fatal error
	PinThreads         bool               // pin dedicated datagram threads to CPUs
	JournalSize        int                // recent warn/error events kept for Stats
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:         "127.0.0.1:7",
		StreamWorkers:      1,
		DatagramWorkers:    1,
		DatagramMode:       api.ModeDedicatedThread,
		Backlog:            transport.DefaultBacklog,
		StreamBufferSize:   echo.DefaultStreamBufferSize,
		DatagramBufferSize: echo.DefaultDatagramBufferSize,
		FailFast:           true,
		JournalSize:        64,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen address is empty", api.ErrInvalidArgument)
	case c.StreamWorkers < 0:
		return fmt.Errorf("%w: stream worker count %d", api.ErrInvalidArgument, c.StreamWorkers)
	case c.DatagramWorkers < 0:
		return fmt.Errorf("%w: datagram worker count %d", api.ErrInvalidArgument, c.DatagramWorkers)
	case c.Backlog <= 0:
		return fmt.Errorf("%w: backlog %d", api.ErrInvalidArgument, c.Backlog)
	case c.StreamBufferSize <= 0:
		return fmt.Errorf("%w: stream buffer size %d", api.ErrInvalidArgument, c.StreamBufferSize)
	case c.DatagramBufferSize < echo.MinDatagramBufferSize:
		return fmt.Errorf("%w: datagram buffer size %d is below %d and would truncate payloads",
			api.ErrInvalidArgument, c.DatagramBufferSize, echo.MinDatagramBufferSize)
	case c.DatagramMode != api.ModeDedicatedThread && c.DatagramMode != api.ModeReadiness:
		return fmt.Errorf("%w: datagram mode %s", api.ErrInvalidArgument, c.DatagramMode)
	}
	return nil
}

// Server is the supervisor: it provisions both transports, runs one worker
// per socket and collects their outcomes.
type Server struct {
	cfg     *Config
	log     api.EventLogger
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	journal *control.ErrorJournal
	buffers *pool.Manager

	mu           sync.Mutex
	started      bool
	cancel       context.CancelFunc
	streamAddr   netip.AddrPort
	datagramAddr netip.AddrPort
	done         chan struct{}
	err          error
}

// workerResult is the outcome of one worker.
type workerResult struct {
	kind    api.Kind
	ordinal int
	err     error
}
