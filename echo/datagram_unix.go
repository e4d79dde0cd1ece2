//go:build linux || darwin
// +build linux darwin

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package echo - datagram I/O on raw descriptors.

package echo

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/momentics/hioload-echo/affinity"
	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/reactor"
	"golang.org/x/sys/unix"
)

// datagramSyscalls are the receive and send calls a worker issues on its
// descriptor.
type datagramSyscalls struct {
	recvfrom func(fd int, p []byte, flags int) (int, unix.Sockaddr, error)
	sendto   func(fd int, p []byte, flags int, to unix.Sockaddr) error
}

func defaultSyscalls() *datagramSyscalls {
	return &datagramSyscalls{recvfrom: unix.Recvfrom, sendto: unix.Sendto}
}

// runDedicated occupies one OS thread with blocking recvfrom/sendto calls.
// Would-block and interrupted calls are retried in place.
func (d *datagramRun) runDedicated(ctx context.Context) error {
	runtime.LockOSThread()
	if !d.pinThread() {
		defer runtime.UnlockOSThread()
	}

	fd := d.sock.Fd()

	// Shutting down the read side wakes a blocked recvfrom on Linux; the
	// receive timeout covers platforms where it does not.
	woke := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(woke)
		_ = unix.Shutdown(fd, unix.SHUT_RD)
	})
	defer func() {
		if !stop() {
			<-woke
		}
	}()

	bufp := d.buffers.Get()
	defer d.buffers.Put(bufp)
	buf := *bufp

	d.started(api.ModeDedicatedThread)
	for {
		if ctx.Err() != nil {
			return d.stopped()
		}
		n, from, err := d.sys.recvfrom(fd, buf, 0)
		if err != nil {
			if transport.IsTransient(err) {
				continue
			}
			if ctx.Err() != nil {
				return d.stopped()
			}
			return d.fail("recvfrom", os.NewSyscallError("recvfrom", err))
		}
		if from == nil {
			// read side shut down
			continue
		}
		d.received(n, from)
		if err := d.sendAll(fd, buf[:n], from, 0); err != nil {
			if ctx.Err() != nil {
				return d.stopped()
			}
			return d.fail("sendto", os.NewSyscallError("sendto", err))
		}
	}
}

// sendAll sends one datagram, retrying interrupted calls. Would-block is
// retried only for blocking sends (flags without MSG_DONTWAIT).
func (d *datagramRun) sendAll(fd int, p []byte, to unix.Sockaddr, flags int) error {
	for {
		err := d.sys.sendto(fd, p, flags, to)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if flags&unix.MSG_DONTWAIT == 0 && transport.IsTransient(err) {
			continue
		}
		return err
	}
}

// runReadiness waits for readable notifications and spawns a task per
// event. Each task drains the socket until it would block.
func (d *datagramRun) runReadiness(ctx context.Context) error {
	r, err := reactor.NewReactor()
	if err != nil {
		return api.NewError(api.ClassSetup, api.Datagram, "reactor", d.ordinal, err)
	}
	defer r.Close()

	fd := d.sock.Fd()
	fatal := make(chan error, 1)
	var tasks sync.WaitGroup
	defer tasks.Wait()

	err = r.Register(uintptr(fd), reactor.EventRead|reactor.EventEdge, func(uintptr, reactor.FDEventType) {
		tasks.Add(1)
		go func() {
			defer tasks.Done()
			if err := d.drain(fd); err != nil {
				select {
				case fatal <- err:
				default:
				}
			}
		}()
	})
	if err != nil {
		return api.NewError(api.ClassSetup, api.Datagram, "register", d.ordinal, err)
	}

	d.started(api.ModeReadiness)
	for {
		select {
		case <-ctx.Done():
			return d.stopped()
		case err := <-fatal:
			return d.fail(opOf(err), err)
		default:
		}
		if _, err := r.Poll(readinessPollMs); err != nil {
			return d.fail("epoll_wait", err)
		}
	}
}

// drain receives and echoes datagrams until the socket would block.
// Only non-transient errors are returned.
func (d *datagramRun) drain(fd int) error {
	bufp := d.buffers.Get()
	defer d.buffers.Put(bufp)
	buf := *bufp

	for {
		n, from, err := d.sys.recvfrom(fd, buf, unix.MSG_DONTWAIT)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if transport.IsTransient(err) {
				return nil
			}
			return os.NewSyscallError("recvfrom", err)
		}
		d.received(n, from)
		if err := d.sendAll(fd, buf[:n], from, unix.MSG_DONTWAIT); err != nil {
			if transport.IsTransient(err) {
				return nil
			}
			return os.NewSyscallError("sendto", err)
		}
	}
}

func opOf(err error) string {
	var se *os.SyscallError
	if errors.As(err, &se) {
		return se.Syscall
	}
	return "echo"
}

func (d *datagramRun) received(n int, from unix.Sockaddr) {
	d.metrics.Add(CounterKey(api.Datagram, d.ordinal, "datagrams"), 1)
	d.metrics.Add(CounterKey(api.Datagram, d.ordinal, "bytes"), int64(n))
	d.log.LogEvent(api.LevelDebug, "UDP worker received data", api.Fields{
		"ordinal": d.ordinal, "len": n, "peer": transport.AddrPortFromSockaddr(from).String(),
	})
}

// pinThread applies CPU affinity to the locked thread when requested and
// reports whether the thread was modified.
func (d *datagramRun) pinThread() bool {
	if !d.pin {
		return false
	}
	cpu := affinity.CPUForOrdinal(d.ordinal)
	if err := affinity.SetAffinity(cpu); err != nil {
		d.log.LogEvent(api.LevelWarn, "UDP worker pinning failed", api.Fields{"ordinal": d.ordinal, "cpu": cpu, "err": err})
		return false
	}
	d.log.LogEvent(api.LevelDebug, "UDP worker pinned", api.Fields{"ordinal": d.ordinal, "cpu": cpu})
	return true
}
