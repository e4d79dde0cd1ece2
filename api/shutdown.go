// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown stops every worker of a component and releases its sockets.
type GracefulShutdown interface {
	// Shutdown stops all workers. It is safe to call more than once.
	Shutdown() error
}
