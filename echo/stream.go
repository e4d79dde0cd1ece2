// Package echo
// Author: momentics <momentics@gmail.com>
//
// Stream echo worker: accept loop plus one echo goroutine per connection.

package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// StreamWorker echoes every connection accepted on one listening socket.
// The zero value is usable.
type StreamWorker struct {
	Log     api.EventLogger
	Metrics api.Metrics
	Buffers *pool.BytePool // defaults to DefaultStreamBufferSize buffers
}

// Run takes ownership of sock and serves it until ctx is cancelled or the
// listener fails. Cancellation yields a nil error.
func (w *StreamWorker) Run(ctx context.Context, sock *transport.Socket) error {
	ln, err := transport.Listener(sock)
	if err != nil {
		_ = sock.Close()
		return api.NewError(api.ClassSetup, api.Stream, "listener", sock.Ordinal(), err)
	}
	return w.Serve(ctx, ln, sock.Ordinal())
}

// Serve runs the accept loop on ln, which it closes on return.
func (w *StreamWorker) Serve(ctx context.Context, ln net.Listener, ordinal int) error {
	log := api.OrNop(w.Log)
	metrics := orNopMetrics(w.Metrics)
	buffers := w.Buffers
	if buffers == nil {
		buffers = pool.DefaultPool(DefaultStreamBufferSize)
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	var conns sync.WaitGroup

	log.LogEvent(api.LevelInfo, "TCP worker started", api.Fields{
		"ordinal": ordinal, "fd": listenerFd(ln), "addr": ln.Addr().String(),
	})

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				conns.Wait()
				log.LogEvent(api.LevelInfo, "TCP worker stopped", api.Fields{"ordinal": ordinal})
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				log.LogEvent(api.LevelError, "TCP worker failed", api.Fields{"ordinal": ordinal, "err": err})
				return api.NewError(api.ClassFatal, api.Stream, "accept", ordinal, err)
			}

			metrics.Add(CounterKey(api.Stream, ordinal, "accept_errors"), 1)
			log.LogEvent(api.LevelWarn, "TCP accept failed", api.Fields{
				"ordinal": ordinal, "class": api.ClassRequest.String(), "err": err,
			})

			delay = nextBackoff(delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		metrics.Add(CounterKey(api.Stream, ordinal, "accepted"), 1)
		log.LogEvent(api.LevelDebug, "TCP worker accepted connection", api.Fields{
			"ordinal": ordinal, "peer": conn.RemoteAddr().String(),
		})

		conns.Add(1)
		go func() {
			defer conns.Done()
			w.echoConn(ctx, conn, ordinal, buffers, log, metrics)
		}()
	}
}

// echoConn copies conn back onto itself until EOF or an error. Failures
// stay inside this goroutine.
func (w *StreamWorker) echoConn(ctx context.Context, conn net.Conn, ordinal int, buffers *pool.BytePool, log api.EventLogger, metrics api.Metrics) {
	peer := conn.RemoteAddr().String()
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			metrics.Add(CounterKey(api.Stream, ordinal, "conn_errors"), 1)
			log.LogEvent(api.LevelError, "TCP connection panicked", api.Fields{
				"ordinal": ordinal, "peer": peer, "class": api.ClassRequest.String(), "err": fmt.Sprint(r),
			})
		}
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	bufp := buffers.Get()
	defer buffers.Put(bufp)

	n, err := EchoStream(conn, *bufp)
	metrics.Add(CounterKey(api.Stream, ordinal, "bytes"), n)
	if err != nil && ctx.Err() == nil {
		metrics.Add(CounterKey(api.Stream, ordinal, "conn_errors"), 1)
		log.LogEvent(api.LevelWarn, "TCP connection failed", api.Fields{
			"ordinal": ordinal, "peer": peer, "class": api.ClassRequest.String(), "bytes": n, "err": err,
		})
		return
	}
	log.LogEvent(api.LevelDebug, "TCP connection closed", api.Fields{
		"ordinal": ordinal, "peer": peer, "bytes": n,
	})
}

// EchoStream writes back every chunk read from rw, in order, until rw
// reports EOF (nil error) or fails. It returns the number of bytes echoed.
func EchoStream(rw io.ReadWriter, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("%w: empty echo buffer", api.ErrInvalidArgument)
	}
	var total int64
	for {
		nr, rerr := rw.Read(buf)
		if nr > 0 {
			nw, werr := rw.Write(buf[:nr])
			total += int64(nw)
			if werr != nil {
				return total, werr
			}
			if nw != nr {
				return total, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return total, nil
			}
			return total, rerr
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	if d *= 2; d > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return d
}

// listenerFd extracts the raw descriptor for diagnostics, -1 if unavailable.
func listenerFd(ln net.Listener) int {
	sc, ok := ln.(syscall.Conn)
	if !ok {
		return -1
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	_ = raw.Control(func(f uintptr) { fd = int(f) })
	return fd
}
