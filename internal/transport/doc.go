// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket provisioning for port-reuse fan-out. Provision creates N sockets
// bound to one address with SO_REUSEADDR and SO_REUSEPORT set, so the kernel
// distributes incoming connections and datagrams across them. Platform code
// is split by build tags (linux/darwin versus everything else).

package transport
