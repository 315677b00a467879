// Package pool recycles frame buffers of the same size.
package pool

import (
	"sync"

	"pipelined.dev/wvr/frame"
)

type key struct {
	width  int
	height int
}

var m = struct {
	sync.Mutex
	pools map[key]*Pool
}{
	pools: map[key]*Pool{},
}

// Pool allocates buffers of fixed size.
type Pool struct {
	width  int
	height int
	pool   sync.Pool
}

// Get returns shared pool for provided size.
func Get(width, height int) *Pool {
	m.Lock()
	defer m.Unlock()
	k := key{width, height}
	if p, ok := m.pools[k]; ok {
		return p
	}

	p := &Pool{width: width, height: height}
	p.pool.New = func() interface{} {
		return frame.New(width, height)
	}
	m.pools[k] = p
	return p
}

// Alloc returns a buffer of pool size. Content is not cleared.
func (p *Pool) Alloc() *frame.Buffer {
	return p.pool.Get().(*frame.Buffer)
}

// Free returns buffer to the pool. Buffers of other size are ignored.
func (p *Pool) Free(b *frame.Buffer) {
	if b == nil || b.Width != p.width || b.Height != p.height {
		return
	}
	p.pool.Put(b)
}

// Copy returns pooled copy of the buffer.
func Copy(b *frame.Buffer) *frame.Buffer {
	c := Get(b.Width, b.Height).Alloc()
	copy(c.Pix, b.Pix)
	return c
}

// Free returns buffer to the pool of its size.
func Free(b *frame.Buffer) {
	if b == nil {
		return
	}
	Get(b.Width, b.Height).Free(b)
}
