// control/journal.go
// Author: momentics <momentics@gmail.com>
//
// Bounded FIFO of recent worker failures, exported through a debug probe.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-echo/api"
)

// JournalEntry is one recorded warn/error event.
type JournalEntry struct {
	Time    time.Time
	Level   api.Level
	Message string
	Fields  api.Fields
}

func (e JournalEntry) String() string {
	return fmt.Sprintf("%s %s %s %v", e.Time.Format(time.RFC3339Nano), e.Level, e.Message, e.Fields)
}

// ErrorJournal keeps the last limit entries; older ones are evicted first.
type ErrorJournal struct {
	mu    sync.Mutex
	q     *queue.Queue
	limit int
	total int64
}

// NewErrorJournal creates a journal holding at most limit entries.
// A non-positive limit falls back to 64.
func NewErrorJournal(limit int) *ErrorJournal {
	if limit <= 0 {
		limit = 64
	}
	return &ErrorJournal{q: queue.New(), limit: limit}
}

// Record appends e, evicting the oldest entry when full.
func (j *ErrorJournal) Record(e JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for j.q.Length() >= j.limit {
		j.q.Remove()
	}
	j.q.Add(e)
	j.total++
}

// Entries returns the retained entries, oldest first.
func (j *ErrorJournal) Entries() []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JournalEntry, j.q.Length())
	for i := range out {
		out[i] = j.q.Get(i).(JournalEntry)
	}
	return out
}

// Total returns how many entries were ever recorded.
func (j *ErrorJournal) Total() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.total
}

// journalingLogger records warn and error events before forwarding them.
type journalingLogger struct {
	next    api.EventLogger
	journal *ErrorJournal
}

// NewJournalingLogger wraps next so that warn and error events are also
// recorded in j.
func NewJournalingLogger(next api.EventLogger, j *ErrorJournal) api.EventLogger {
	return &journalingLogger{next: api.OrNop(next), journal: j}
}

func (l *journalingLogger) LogEvent(level api.Level, msg string, fields api.Fields) {
	if level >= api.LevelWarn {
		l.journal.Record(JournalEntry{Time: time.Now(), Level: level, Message: msg, Fields: fields})
	}
	l.next.LogEvent(level, msg, fields)
}
