package echo_test

import (
	"fmt"
	"net"
	"testing"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/echo"
	"github.com/momentics/hioload-echo/fake"
)

const fanOutWorkers = 4

func servedBy(metrics *control.MetricsRegistry, kind api.Kind, counter string) (workers int, total int64) {
	for i := 0; i < fanOutWorkers; i++ {
		if n := metrics.Counter(echo.CounterKey(kind, i, counter)); n > 0 {
			workers++
			total += n
		}
	}
	return workers, total
}

func TestStreamFanOutAcrossWorkers(t *testing.T) {
	metrics := control.NewMetricsRegistry()
	addr, stop := startStream(t, fanOutWorkers, &echo.StreamWorker{Metrics: metrics})
	defer stop()

	const conns = 64
	for i := 0; i < conns; i++ {
		conn, err := net.Dial("tcp", addr.String())
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		roundTrip(t, conn, []byte(fmt.Sprintf("connection %d", i)))
		conn.Close()
	}

	workers, total := servedBy(metrics, api.Stream, "accepted")
	if total != conns {
		t.Errorf("accepted %d connections, want %d", total, conns)
	}
	if workers < 2 {
		t.Errorf("connections served by %d worker(s), want at least 2", workers)
	}
}

func TestDatagramFanOutAcrossWorkers(t *testing.T) {
	for _, mode := range datagramModes(t) {
		t.Run(mode.String(), func(t *testing.T) {
			metrics := control.NewMetricsRegistry()
			addr, stop := startDatagram(t, fanOutWorkers, &echo.DatagramWorker{Mode: mode, Metrics: metrics})
			defer stop()

			const clients = 48
			for i := 0; i < clients; i++ {
				client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
				if err != nil {
					t.Fatalf("client socket: %v", err)
				}
				exchange(t, client, addr, []byte(fmt.Sprintf("client %d", i)))
				client.Close()
			}

			workers, total := servedBy(metrics, api.Datagram, "datagrams")
			if total != clients {
				t.Errorf("echoed %d datagrams, want %d", total, clients)
			}
			if workers < 2 {
				t.Errorf("datagrams served by %d worker(s), want at least 2", workers)
			}
		})
	}
}

func TestDatagramWorkerPinnedThread(t *testing.T) {
	logger := &fake.Logger{}
	addr, stop := startDatagram(t, 2, &echo.DatagramWorker{Mode: api.ModeDedicatedThread, PinThreads: true, Log: logger})

	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("client socket: %v", err)
	}
	defer client.Close()
	exchange(t, client, addr, []byte("pinned"))

	for _, err := range stop() {
		if err != nil {
			t.Errorf("worker returned %v", err)
		}
	}
	if pinned, failed := logger.Count("UDP worker pinned"), logger.Count("UDP worker pinning failed"); pinned+failed != 2 {
		t.Errorf("pinning attempted %d time(s), want 2", pinned+failed)
	}
}
