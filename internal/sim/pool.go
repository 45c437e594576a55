package sim

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// bufferPool recycles per-tick displacement buffers. Simulations in an
// ensemble share it.
type bufferPool struct {
	pool sync.Pool
}

var displacements = &bufferPool{
	pool: sync.Pool{
		New: func() any {
			buf := make([]r2.Vec, 0, 64)
			return &buf
		},
	},
}

// Get returns a zeroed buffer of length n.
func (p *bufferPool) Get(n int) *[]r2.Vec {
	buf := p.pool.Get().(*[]r2.Vec)
	if cap(*buf) < n {
		*buf = make([]r2.Vec, n)
	}
	*buf = (*buf)[:n]
	clear(*buf)
	return buf
}

func (p *bufferPool) Put(buf *[]r2.Vec) {
	p.pool.Put(buf)
}
