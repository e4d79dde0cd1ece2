// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"errors"
	"net"
	"sync"
)

// ErrInjectedAccept is returned by FlakyListener for injected failures.
var ErrInjectedAccept = errors.New("fake: injected accept failure")

// FlakyListener wraps a real listener and fails the first Failures calls to
// Accept. A failed call still consumes a pending connection when Drop is
// set, simulating a peer that reset before the handshake completed.
type FlakyListener struct {
	net.Listener
	Failures int
	Drop     bool

	mu     sync.Mutex
	failed int
}

func (l *FlakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	fail := l.failed < l.Failures
	if fail {
		l.failed++
	}
	l.mu.Unlock()

	if !fail {
		return l.Listener.Accept()
	}
	if l.Drop {
		c, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		_ = c.Close()
	}
	return nil, ErrInjectedAccept
}

// Failed returns how many failures were injected so far.
func (l *FlakyListener) Failed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failed
}
