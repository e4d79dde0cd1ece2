// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-echo/api"
)

// Event is one call to Logger.LogEvent.
type Event struct {
	Level   api.Level
	Message string
	Fields  api.Fields
}

// Logger records every event it receives.
type Logger struct {
	mu     sync.Mutex
	events []Event
}

func (l *Logger) LogEvent(level api.Level, msg string, fields api.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{Level: level, Message: msg, Fields: fields})
}

// Events returns a copy of the recorded events.
func (l *Logger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Count returns how many events carry msg.
func (l *Logger) Count(msg string) int {
	n := 0
	for _, e := range l.Events() {
		if e.Message == msg {
			n++
		}
	}
	return n
}
