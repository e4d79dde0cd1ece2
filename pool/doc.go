// Package pool
// Author: momentics <momentics@gmail.com>
//
// Echo buffer pooling. A BytePool hands out fixed-capacity scratch buffers;
// a Manager keeps one BytePool per buffer size so workers of the same
// transport recycle each other's buffers instead of allocating per task.
package pool
