package forces

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/quadtree"
)

// Force accumulates displacement for the current tick.
type Force interface {
	Name() string
	Apply(f *Frame, alpha float64)
}

// Frame is the scratch state of a single tick.
type Frame struct {
	Set     *dynamo.Set
	Springs []dynamo.Spring
	Tree    *quadtree.Tree
	Theta   float64

	disp []r2.Vec
}

// NewFrame prepares a frame over set. buf is reused as the displacement
// buffer when it has enough capacity.
func NewFrame(set *dynamo.Set, springs []dynamo.Spring, tree *quadtree.Tree, theta float64, buf []r2.Vec) *Frame {
	n := set.Slots()
	if cap(buf) < n {
		buf = make([]r2.Vec, n)
	}
	buf = buf[:n]
	clear(buf)
	return &Frame{Set: set, Springs: springs, Tree: tree, Theta: theta, disp: buf}
}

// Add accumulates v onto the displacement of id.
func (f *Frame) Add(id dynamo.ID, v r2.Vec) {
	d := &f.disp[id.Index]
	d.X += v.X
	d.Y += v.Y
}

// Displacement returns the accumulated displacement of id.
func (f *Frame) Displacement(id dynamo.ID) r2.Vec {
	if int(id.Index) >= len(f.disp) {
		return r2.Vec{}
	}
	return f.disp[id.Index]
}

// Buffer returns the displacement buffer for reuse by the next frame.
func (f *Frame) Buffer() []r2.Vec { return f.disp }
