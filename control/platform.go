// control/platform.go
// Author: momentics <momentics@gmail.com>

package control

import "runtime"

// RegisterPlatformProbes registers process-level probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	registerOSProbes(dp)
}
