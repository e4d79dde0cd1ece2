//go:build !linux
// +build !linux

package control

func registerOSProbes(dp *DebugProbes) {}
