// control/logger.go
// Author: momentics <momentics@gmail.com>
//
// api.EventLogger backed by go-log (zap). Levels are driven by go-log's
// GOLOG_LOG_LEVEL environment variable or SetLogLevel.

package control

import (
	"sort"

	logging "github.com/ipfs/go-log/v2"
	"github.com/momentics/hioload-echo/api"
)

// GoLogSink forwards events to a named go-log logger.
type GoLogSink struct {
	log *logging.ZapEventLogger
}

// NewEventLogger returns a sink for the go-log subsystem named system.
func NewEventLogger(system string) *GoLogSink {
	return &GoLogSink{log: logging.Logger(system)}
}

// LogEvent implements api.EventLogger.
func (s *GoLogSink) LogEvent(level api.Level, msg string, fields api.Fields) {
	kv := flatten(fields)
	switch level {
	case api.LevelDebug:
		s.log.Debugw(msg, kv...)
	case api.LevelInfo:
		s.log.Infow(msg, kv...)
	case api.LevelWarn:
		s.log.Warnw(msg, kv...)
	default:
		s.log.Errorw(msg, kv...)
	}
}

// SetLogLevel changes the level of the go-log subsystem named system.
func SetLogLevel(system, level string) error {
	return logging.SetLogLevel(system, level)
}

// flatten turns fields into zap's alternating key/value form with stable key order.
func flatten(fields api.Fields) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}
