package evidence

import (
	"bytes"
	"sync"
)

// Buffers above this size are dropped instead of pooled, so one huge scene
// does not pin its memory for the rest of the run.
const maxPooledBuffer = 1 << 20

// bufferPool reuses encode buffers. Every executed command digests the
// scene twice, which would otherwise allocate a fresh buffer each time.
type bufferPool struct {
	pool sync.Pool
}

var encodeBuffers = &bufferPool{
	pool: sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	},
}

// Get returns an empty buffer.
func (p *bufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool. The caller must not touch buf afterwards.
func (p *bufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	p.pool.Put(buf)
}
