// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Supervisor for the stream and datagram echo workers.

package server

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/echo"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
)

// LogSystem is the go-log subsystem name used by the default logger.
const LogSystem = "hioload-echo"

// NewServer builds the supervisor. cfg is copied; nil means DefaultConfig.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	s := &Server{
		cfg:     &c,
		log:     control.NewEventLogger(LogSystem),
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
		buffers: pool.NewManager(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, api.SetupError(api.AnyKind, "config", err)
	}

	s.journal = control.NewErrorJournal(s.cfg.JournalSize)
	s.log = control.NewJournalingLogger(s.log, s.journal)
	s.registerProbes()
	return s, nil
}

// Start resolves the listen address, provisions every socket and launches
// the workers. Setup failures are returned before any worker runs. Workers
// stop when ctx is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return api.ErrAlreadyRunning
	}

	addr, err := transport.ResolveListenAddr(ctx, s.cfg.ListenAddr)
	if err != nil {
		return api.SetupError(api.AnyKind, "resolve", err)
	}

	streamOpts := transport.StreamOptions()
	streamOpts.Backlog = s.cfg.Backlog
	streamSocks, err := transport.Provision(addr, api.Stream, s.cfg.StreamWorkers, streamOpts)
	if err != nil {
		return err
	}

	// With an OS-assigned port both transports share the stream port.
	dgAddr := addr
	if addr.Port() == 0 && len(streamSocks) > 0 {
		dgAddr = netip.AddrPortFrom(addr.Addr(), streamSocks[0].LocalAddr().Port())
	}
	dgSocks, err := transport.Provision(dgAddr, api.Datagram, s.cfg.DatagramWorkers, transport.DatagramOptions(s.cfg.DatagramMode))
	if err != nil {
		closeAll(streamSocks)
		return err
	}

	if len(streamSocks) > 0 {
		s.streamAddr = streamSocks[0].LocalAddr()
	}
	if len(dgSocks) > 0 {
		s.datagramAddr = dgSocks[0].LocalAddr()
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	stream := &echo.StreamWorker{
		Log:     s.log,
		Metrics: s.metrics,
		Buffers: s.buffers.GetPool(s.cfg.StreamBufferSize),
	}
	datagram := &echo.DatagramWorker{
		Mode:    s.cfg.DatagramMode,
		Log:     s.log,
		Metrics: s.metrics,
		Buffers: s.buffers.GetPool(s.cfg.DatagramBufferSize),

		PinThreads: s.cfg.PinThreads,
	}

	total := len(streamSocks) + len(dgSocks)
	results := make(chan workerResult, total)
	for _, sock := range streamSocks {
		go func(sock *transport.Socket) {
			results <- workerResult{api.Stream, sock.Ordinal(), stream.Run(runCtx, sock)}
		}(sock)
	}
	for _, sock := range dgSocks {
		go func(sock *transport.Socket) {
			results <- workerResult{api.Datagram, sock.Ordinal(), datagram.Run(runCtx, sock)}
		}(sock)
	}

	s.log.LogEvent(api.LevelInfo, "echo server started", api.Fields{
		"addr":             addr.String(),
		"stream_workers":   len(streamSocks),
		"datagram_workers": len(dgSocks),
		"datagram_mode":    s.cfg.DatagramMode.String(),
	})
	s.metrics.Set("server.started_at", time.Now().UTC().Format(time.RFC3339))

	go s.supervise(results, total, cancel)
	return nil
}

// supervise waits for every worker and aggregates fatal errors.
func (s *Server) supervise(results <-chan workerResult, total int, cancel context.CancelFunc) {
	defer cancel()
	var errs []error
	for i := 0; i < total; i++ {
		res := <-results
		if res.err == nil {
			continue
		}
		errs = append(errs, res.err)
		s.metrics.Add("server.worker_failures", 1)
		s.log.LogEvent(api.LevelError, "worker terminated", api.Fields{
			"kind": res.kind.String(), "ordinal": res.ordinal, "err": res.err,
		})
		if s.cfg.FailFast {
			cancel()
		}
	}

	s.mu.Lock()
	s.err = errors.Join(errs...)
	s.mu.Unlock()
	close(s.done)
}

// Wait blocks until every worker has terminated and returns their joined
// fatal errors, nil when all of them stopped because of cancellation.
func (s *Server) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return api.ErrNotStarted
	}
	<-done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Run is Start followed by Wait.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Wait()
}

// Shutdown stops every worker and waits for them. It implements api.GracefulShutdown.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return api.ErrNotStarted
	}
	cancel()
	return s.Wait()
}

// StreamAddr returns the address the stream sockets are bound to, nil if none.
func (s *Server) StreamAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streamAddr.IsValid() {
		return nil
	}
	return net.TCPAddrFromAddrPort(s.streamAddr)
}

// DatagramAddr returns the address the datagram sockets are bound to, nil if none.
func (s *Server) DatagramAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.datagramAddr.IsValid() {
		return nil
	}
	return net.UDPAddrFromAddrPort(s.datagramAddr)
}

// Metrics exposes the per-worker counters.
func (s *Server) Metrics() *control.MetricsRegistry { return s.metrics }

// Journal exposes recent warn/error events.
func (s *Server) Journal() *control.ErrorJournal { return s.journal }

func closeAll(socks []*transport.Socket) {
	for _, sock := range socks {
		_ = sock.Close()
	}
}
