//go:build !linux && !darwin
// +build !linux,!darwin

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package echo

import (
	"context"

	"github.com/momentics/hioload-echo/api"
)

type datagramSyscalls struct{}

func defaultSyscalls() *datagramSyscalls { return &datagramSyscalls{} }

func (d *datagramRun) runDedicated(ctx context.Context) error {
	return api.NewError(api.ClassSetup, api.Datagram, "run", d.ordinal, api.ErrNotSupported)
}

func (d *datagramRun) runReadiness(ctx context.Context) error {
	return api.NewError(api.ClassSetup, api.Datagram, "run", d.ordinal, api.ErrNotSupported)
}
