// Package api
// Author: momentics <momentics@gmail.com>
//
// Logging sink contract injected into every worker.

package api

// Level is the severity of a logged event.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// Fields are structured key/value pairs attached to an event.
type Fields map[string]any

// EventLogger receives structured events from the engine.
// Implementations must be safe for concurrent use.
type EventLogger interface {
	LogEvent(level Level, msg string, fields Fields)
}

// NopLogger discards every event.
type NopLogger struct{}

func (NopLogger) LogEvent(Level, string, Fields) {}

// OrNop returns l, or NopLogger when l is nil.
func OrNop(l EventLogger) EventLogger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
