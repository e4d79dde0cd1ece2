// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides readiness notification for raw descriptors:
// callers register a descriptor with a callback and drive Poll from their
// own loop. Linux uses epoll; other platforms report api.ErrNotSupported.
package reactor
