// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for per-worker fan-out monitoring.
// Counters are created on first use and updated atomically afterwards.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRegistry holds counters and free-form values.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64
	metrics  map[string]any
	updated  atomic.Int64
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Int64),
		metrics:  make(map[string]any),
	}
}

// Add increments the counter key by delta. It implements api.Metrics.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.counter(key).Add(delta)
	mr.updated.Store(time.Now().UnixNano())
}

// Counter returns the current value of key, zero if it was never set.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

func (mr *MetricsRegistry) counter(key string) *atomic.Int64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if ok {
		return c
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[key]; !ok {
		c = new(atomic.Int64)
		mr.counters[key] = c
	}
	return c
}

// Set sets or updates a non-counter metric.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.mu.Unlock()
	mr.updated.Store(time.Now().UnixNano())
}

// Updated returns the time of the last change, zero if none.
func (mr *MetricsRegistry) Updated() time.Time {
	ns := mr.updated.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// GetSnapshot returns counters and values in one map.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	return out
}
