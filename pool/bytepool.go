// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles buffers of one fixed size.
type BytePool struct {
	size int
	pool sync.Pool
}

// NewBytePool creates a pool of size-byte buffers. size must be positive.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		panic("pool: buffer size must be positive")
	}
	p := &BytePool{size: size}
	p.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return p
}

// Size returns the capacity of every buffer handed out.
func (p *BytePool) Size() int { return p.size }

// Get returns a buffer of full length Size.
func (p *BytePool) Get() *[]byte {
	b := p.pool.Get().(*[]byte)
	*b = (*b)[:p.size]
	return b
}

// Put returns a buffer obtained from Get. Foreign buffers are dropped.
func (p *BytePool) Put(b *[]byte) {
	if b == nil || cap(*b) != p.size {
		return
	}
	p.pool.Put(b)
}
