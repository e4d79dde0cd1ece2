// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes evaluated on demand for Server.Stats: worker counts, bound
// addresses, journal contents and platform figures.

package control

import (
	"fmt"
	"sync"
)

// DebugProbes maps a probe name such as "addr.stream" to the function that
// reads its current value.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates an empty probe set.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{probes: make(map[string]func() any)}
}

// RegisterProbe adds fn under name. A later registration under the same
// name wins.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState evaluates every probe. A probe that panics reports the panic
// as its value; the rest of the snapshot is unaffected.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for name, fn := range dp.probes {
		out[name] = evalProbe(fn)
	}
	return out
}

func evalProbe(fn func() any) (v any) {
	defer func() {
		if r := recover(); r != nil {
			v = fmt.Sprintf("probe panic: %v", r)
		}
	}()
	return fn()
}
