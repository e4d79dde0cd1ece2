//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll implementation.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const maxEvents = 128

// epollReactor implements Reactor using Linux epoll.
type epollReactor struct {
	epfd      int
	callbacks sync.Map // map[uintptr]FDCallback
	events    [maxEvents]unix.EpollEvent
}

// NewReactor creates an epoll-backed Reactor.
func NewReactor() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollReactor{epfd: epfd}, nil
}

// Register adds a file descriptor to the epoll watch list.
func (r *epollReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	var ev unix.EpollEvent
	if events&EventRead != 0 {
		ev.Events |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		ev.Events |= unix.EPOLLOUT
	}
	if events&EventEdge != 0 {
		ev.Events |= unix.EPOLLET
	}
	ev.Fd = int32(fd)

	r.callbacks.Store(fd, cb)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		r.callbacks.Delete(fd)
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	return nil
}

// Unregister removes a file descriptor from the epoll watch list.
func (r *epollReactor) Unregister(fd uintptr) error {
	r.callbacks.Delete(fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Poll blocks and waits for events on registered file descriptors.
func (r *epollReactor) Poll(timeoutMs int) (int, error) {
	if timeoutMs < 0 {
		timeoutMs = -1
	}
	n, err := unix.EpollWait(r.epfd, r.events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil // interrupted by signal, normal
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		ev := r.events[i]
		fd := uintptr(ev.Fd)

		val, ok := r.callbacks.Load(fd)
		if !ok {
			continue
		}

		var eventType FDEventType
		if ev.Events&unix.EPOLLIN != 0 {
			eventType |= EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			eventType |= EventWrite
		}
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			eventType |= EventError
		}

		val.(FDCallback)(fd, eventType)
		dispatched++
	}
	return dispatched, nil
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
