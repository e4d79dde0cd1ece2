// File: pool/manager.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// Manager owns one BytePool per buffer size.
type Manager struct {
	mu    sync.Mutex
	pools map[int]*BytePool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[int]*BytePool)}
}

// GetPool returns the pool for size, creating it on first use.
func (m *Manager) GetPool(size int) *BytePool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[size]
	if !ok {
		p = NewBytePool(size)
		m.pools[size] = p
	}
	return p
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
)

// DefaultManager returns a process-wide Manager.
func DefaultManager() *Manager {
	defaultOnce.Do(func() {
		defaultMgr = NewManager()
	})
	return defaultMgr
}

// DefaultPool is a shortcut to fetch a pool from the default manager.
func DefaultPool(size int) *BytePool {
	return DefaultManager().GetPool(size)
}
