//go:build linux || darwin

package echo

import "golang.org/x/sys/unix"

// RecvfromFunc and SendtoFunc mirror the unix calls a datagram worker issues.
type (
	RecvfromFunc = func(fd int, p []byte, flags int) (int, unix.Sockaddr, error)
	SendtoFunc   = func(fd int, p []byte, flags int, to unix.Sockaddr) error
)

// SetDatagramSyscalls replaces the socket calls of w. A nil function keeps
// the real call.
func SetDatagramSyscalls(w *DatagramWorker, recv RecvfromFunc, send SendtoFunc) {
	sys := defaultSyscalls()
	if recv != nil {
		sys.recvfrom = recv
	}
	if send != nil {
		sys.sendto = send
	}
	w.sys = sys
}
