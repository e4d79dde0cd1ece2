// Package echo
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Echo workers for port-reuse fan-out. A StreamWorker runs one accept loop
// per listening socket and echoes each connection in its own goroutine.
// A DatagramWorker echoes every datagram back to its sender, either from a
// dedicated OS thread doing blocking I/O or from readiness notifications.
//
// Workers never share sockets or buffers. Per-connection and per-accept
// failures are logged and absorbed; only failures of a worker's own socket
// end the worker, and they are returned to the caller.
package echo
