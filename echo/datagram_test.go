//go:build linux || darwin

package echo_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/echo"
	"github.com/momentics/hioload-echo/fake"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
)

func datagramModes(t *testing.T) []api.SchedulingMode {
	modes := []api.SchedulingMode{api.ModeDedicatedThread}
	if supportsReadiness() {
		modes = append(modes, api.ModeReadiness)
	}
	return modes
}

func startDatagram(t *testing.T, n int, w *echo.DatagramWorker) (*net.UDPAddr, func() []error) {
	t.Helper()
	socks, err := transport.Provision(loopback, api.Datagram, n, transport.DatagramOptions(w.Mode))
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan error, n)
	for _, s := range socks {
		go func(s *transport.Socket) { results <- w.Run(ctx, s) }(s)
	}
	stop := func() []error {
		cancel()
		var errs []error
		for range socks {
			select {
			case err := <-results:
				errs = append(errs, err)
			case <-time.After(5 * time.Second):
				t.Fatal("datagram worker did not stop")
			}
		}
		return errs
	}
	return net.UDPAddrFromAddrPort(socks[0].LocalAddr()), stop
}

func exchange(t *testing.T, client *net.UDPConn, server *net.UDPAddr, payload []byte) {
	t.Helper()
	if _, err := client.WriteToUDP(payload, server); err != nil {
		t.Fatalf("send: %v", err)
	}
	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 64*1024)
	n, from, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("echo mismatch: got %q want %q", buf[:n], payload)
	}
	if from.Port != server.Port {
		t.Fatalf("reply came from %v, want port %d", from, server.Port)
	}
}

func TestDatagramWorkerEchoesHelloWorld(t *testing.T) {
	for _, mode := range datagramModes(t) {
		t.Run(mode.String(), func(t *testing.T) {
			logger := &fake.Logger{}
			metrics := control.NewMetricsRegistry()
			addr, stop := startDatagram(t, 1, &echo.DatagramWorker{Mode: mode, Log: logger, Metrics: metrics})

			client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
			if err != nil {
				t.Fatalf("client socket: %v", err)
			}
			defer client.Close()

			exchange(t, client, addr, []byte("hello world"))

			for _, err := range stop() {
				if err != nil {
					t.Errorf("worker returned %v after cancellation", err)
				}
			}
			if got := metrics.Counter(echo.CounterKey(api.Datagram, 0, "datagrams")); got != 1 {
				t.Errorf("datagrams = %d, want 1", got)
			}
			if got := metrics.Counter(echo.CounterKey(api.Datagram, 0, "bytes")); got != int64(len("hello world")) {
				t.Errorf("bytes = %d", got)
			}
			if logger.Count("UDP worker started") != 1 || logger.Count("UDP worker stopped") != 1 {
				t.Errorf("missing lifecycle events: %+v", logger.Events())
			}
		})
	}
}

func TestDatagramWorkerEchoesEveryDatagram(t *testing.T) {
	for _, mode := range datagramModes(t) {
		t.Run(mode.String(), func(t *testing.T) {
			addr, stop := startDatagram(t, 1, &echo.DatagramWorker{Mode: mode})
			defer stop()

			client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
			if err != nil {
				t.Fatalf("client socket: %v", err)
			}
			defer client.Close()

			exchange(t, client, addr, []byte{})
			for i := 0; i < 32; i++ {
				exchange(t, client, addr, []byte(fmt.Sprintf("datagram-%02d", i)))
			}
			exchange(t, client, addr, bytes.Repeat([]byte{0x5a}, 8192))
		})
	}
}

func TestDatagramWorkerRejectsStreamSocket(t *testing.T) {
	socks, err := transport.Provision(loopback, api.Stream, 1, transport.StreamOptions())
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	w := &echo.DatagramWorker{}
	err = w.Run(context.Background(), socks[0])
	if !api.IsSetup(err) {
		t.Fatalf("want setup error, got %v", err)
	}
	if !socks[0].Closed() {
		t.Error("socket left open")
	}
}

func TestDatagramWorkerRejectsTruncatingBuffers(t *testing.T) {
	socks, err := transport.Provision(loopback, api.Datagram, 1, transport.DatagramOptions(api.ModeDedicatedThread))
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	w := &echo.DatagramWorker{Buffers: pool.NewBytePool(1500)}
	err = w.Run(context.Background(), socks[0])
	if !api.IsSetup(err) || !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("want invalid-argument setup error, got %v", err)
	}
	if !socks[0].Closed() {
		t.Error("socket left open")
	}
}
