// Package echo
// Author: momentics <momentics@gmail.com>
//
// Datagram echo worker. The scheduling strategy is configuration, not a
// separate component: both variants share Run.

package echo

import (
	"context"
	"fmt"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
)

// readinessPollMs bounds how long the readiness loop waits before it
// rechecks for cancellation.
const readinessPollMs = 100

// DatagramWorker echoes every datagram received on one socket back to its sender.
type DatagramWorker struct {
	Mode    api.SchedulingMode
	Log     api.EventLogger
	Metrics api.Metrics
	Buffers *pool.BytePool // defaults to DefaultDatagramBufferSize buffers

	// PinThreads pins each dedicated thread to CPU ordinal % NumCPU. A pinned
	// thread is discarded once the goroutine that called Run exits.
	PinThreads bool

	sys *datagramSyscalls // nil means the real socket calls
}

// Run takes ownership of sock and echoes until ctx is cancelled (nil error)
// or a non-transient receive/send failure occurs (fatal error).
func (w *DatagramWorker) Run(ctx context.Context, sock *transport.Socket) error {
	defer sock.Close()
	if sock.Kind() != api.Datagram {
		return api.NewError(api.ClassSetup, sock.Kind(), "run", sock.Ordinal(),
			fmt.Errorf("%w: datagram worker given a %s socket", api.ErrInvalidArgument, sock.Kind()))
	}
	if w.Buffers != nil && w.Buffers.Size() < MinDatagramBufferSize {
		return api.NewError(api.ClassSetup, api.Datagram, "run", sock.Ordinal(),
			fmt.Errorf("%w: datagram buffer of %d bytes truncates payloads above it", api.ErrInvalidArgument, w.Buffers.Size()))
	}

	d := &datagramRun{
		sock:    sock,
		ordinal: sock.Ordinal(),
		log:     api.OrNop(w.Log),
		metrics: orNopMetrics(w.Metrics),
		buffers: w.Buffers,
		pin:     w.PinThreads,
		sys:     w.sys,
	}
	if d.sys == nil {
		d.sys = defaultSyscalls()
	}
	if d.buffers == nil {
		d.buffers = pool.DefaultPool(DefaultDatagramBufferSize)
	}

	switch w.Mode {
	case api.ModeDedicatedThread:
		return d.runDedicated(ctx)
	case api.ModeReadiness:
		return d.runReadiness(ctx)
	default:
		return api.NewError(api.ClassSetup, api.Datagram, "run", d.ordinal,
			fmt.Errorf("%w: scheduling mode %s", api.ErrInvalidArgument, w.Mode))
	}
}

// datagramRun is the state of one Run call.
type datagramRun struct {
	sock    *transport.Socket
	ordinal int
	log     api.EventLogger
	metrics api.Metrics
	buffers *pool.BytePool
	pin     bool
	sys     *datagramSyscalls
}

func (d *datagramRun) started(mode api.SchedulingMode) {
	d.log.LogEvent(api.LevelInfo, "UDP worker started", api.Fields{
		"ordinal": d.ordinal, "fd": d.sock.Fd(), "addr": d.sock.LocalAddr().String(), "mode": mode.String(),
	})
}

func (d *datagramRun) stopped() error {
	d.log.LogEvent(api.LevelInfo, "UDP worker stopped", api.Fields{"ordinal": d.ordinal})
	return nil
}

func (d *datagramRun) fail(op string, err error) error {
	d.log.LogEvent(api.LevelError, "UDP worker failed", api.Fields{
		"ordinal": d.ordinal, "op": op, "class": api.ClassFatal.String(), "err": err,
	})
	return api.NewError(api.ClassFatal, api.Datagram, op, d.ordinal, err)
}
