//go:build linux || darwin

// File: server/server_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Full supervisor lifecycle over loopback sockets.

package server_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/echo"
	"github.com/momentics/hioload-echo/fake"
	"github.com/momentics/hioload-echo/server"
)

func testConfig(stream, datagram int) *server.Config {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.StreamWorkers = stream
	cfg.DatagramWorkers = datagram
	return cfg
}

func tcpEcho(t *testing.T, addr net.Addr, payload []byte) {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(conn, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("tcp echo %q, want %q", got, payload)
	}
}

func udpEcho(t *testing.T, addr net.Addr, payload []byte) {
	t.Helper()
	conn, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("udp echo %q, want %q", buf[:n], payload)
	}
}

func TestServerLifecycle(t *testing.T) {
	for _, mode := range []api.SchedulingMode{api.ModeDedicatedThread, api.ModeReadiness} {
		t.Run(mode.String(), func(t *testing.T) {
			if mode == api.ModeReadiness && !readinessSupported {
				t.Skip("readiness mode needs epoll")
			}
			logger := &fake.Logger{}
			s, err := server.NewServer(testConfig(2, 2), server.WithLogger(logger), server.WithDatagramMode(mode))
			if err != nil {
				t.Fatalf("NewServer: %v", err)
			}
			if err := s.Start(context.Background()); err != nil {
				t.Fatalf("Start: %v", err)
			}

			tcpAddr, udpAddr := s.StreamAddr(), s.DatagramAddr()
			if tcpAddr == nil || udpAddr == nil {
				t.Fatalf("addresses not reported: %v %v", tcpAddr, udpAddr)
			}
			if tcpAddr.(*net.TCPAddr).Port != udpAddr.(*net.UDPAddr).Port {
				t.Errorf("transports on different ports: %v %v", tcpAddr, udpAddr)
			}

			tcpEcho(t, tcpAddr, []byte("hello world"))
			udpEcho(t, udpAddr, []byte("hello world"))

			if err := s.Start(context.Background()); !errors.Is(err, api.ErrAlreadyRunning) {
				t.Errorf("second Start: %v", err)
			}

			stats := s.Stats()
			for _, key := range []string{"debug.workers.stream", "debug.addr.stream", "debug.journal.total", "server.started_at"} {
				if _, ok := stats[key]; !ok {
					t.Errorf("Stats missing %q", key)
				}
			}

			if err := s.Shutdown(); err != nil {
				t.Fatalf("Shutdown: %v", err)
			}
			if n := logger.Count("TCP worker stopped"); n != 2 {
				t.Errorf("%d stream workers stopped, want 2", n)
			}
			if n := logger.Count("UDP worker stopped"); n != 2 {
				t.Errorf("%d datagram workers stopped, want 2", n)
			}
		})
	}
}

func TestServerZeroWorkers(t *testing.T) {
	s, err := server.NewServer(testConfig(0, 0), server.WithLogger(&fake.Logger{}))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run with no workers did not return")
	}
	if s.StreamAddr() != nil || s.DatagramAddr() != nil {
		t.Error("addresses reported without sockets")
	}
}

func TestServerOnlyOneTransport(t *testing.T) {
	s, err := server.NewServer(testConfig(0, 1), server.WithLogger(&fake.Logger{}))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.StreamAddr() != nil {
		t.Error("stream address reported with zero stream workers")
	}
	udpEcho(t, s.DatagramAddr(), []byte("only udp"))
	cancel()
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestServerCountsPerWorker(t *testing.T) {
	metrics := control.NewMetricsRegistry()
	s, err := server.NewServer(testConfig(1, 0), server.WithLogger(&fake.Logger{}), server.WithMetrics(metrics))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Shutdown()

	for i := 0; i < 3; i++ {
		tcpEcho(t, s.StreamAddr(), []byte("count me"))
	}
	if got := metrics.Counter(echo.CounterKey(api.Stream, 0, "accepted")); got != 3 {
		t.Errorf("accepted = %d, want 3", got)
	}
	if s.Metrics() != metrics {
		t.Error("WithMetrics registry not used")
	}
}

func TestServerSetupErrors(t *testing.T) {
	bad := testConfig(-1, 0)
	if _, err := server.NewServer(bad); !api.IsSetup(err) || !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("negative workers: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	cfg := testConfig(2, 0)
	cfg.ListenAddr = ln.Addr().String()
	s, err := server.NewServer(cfg, server.WithLogger(&fake.Logger{}))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := s.Start(context.Background()); !api.IsSetup(err) {
		t.Fatalf("bind conflict: want setup error, got %v", err)
	}
	if err := s.Wait(); !errors.Is(err, api.ErrNotStarted) {
		t.Errorf("Wait after failed Start: %v", err)
	}
	if err := s.Shutdown(); !errors.Is(err, api.ErrNotStarted) {
		t.Errorf("Shutdown after failed Start: %v", err)
	}
}
