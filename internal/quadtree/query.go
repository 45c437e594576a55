package quadtree

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Kernel computes the contribution of a source of the given mass to a
// probe, where delta = probe - source.
type Kernel func(delta r2.Vec, mass float64) r2.Vec

// Accumulate sums kernel over every stored particle except probe.
//
// An internal node whose Size/distance ratio is below theta and that
// contains neither pos nor the probe's stored coordinate is evaluated once
// at its centroid with its aggregated mass. theta = 0 visits every leaf.
func (t *Tree) Accumulate(probe dynamo.ID, pos r2.Vec, theta float64, kernel Kernel) r2.Vec {
	self, hasSelf := t.Coord(probe)
	var sum r2.Vec

	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Mass == 0 {
			return
		}
		if n.Leaf {
			if n.ID == probe {
				return
			}
			sum = r2.Add(sum, kernel(r2.Sub(pos, n.Coord), n.Mass))
			return
		}
		if theta > 0 {
			b := n.Bounds()
			if !b.Contains(pos) && !(hasSelf && b.Contains(self)) {
				delta := r2.Sub(pos, n.Centroid)
				if d := r2.Norm(delta); d > 0 && n.Size/d < theta {
					sum = r2.Add(sum, kernel(delta, n.Mass))
					return
				}
			}
		}
		for _, c := range n.Children {
			if c != nil {
				walk(c)
			}
		}
	}
	walk(t.Root)
	return sum
}

// Visit walks the tree in pre-order. Returning true from fn skips the
// node's children.
func (t *Tree) Visit(fn func(n *Node) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if fn(n) {
			return
		}
		for _, c := range n.Children {
			if c != nil {
				walk(c)
			}
		}
	}
	walk(t.Root)
}

// Neighbors calls fn for every stored particle within radius of pos,
// using the stored (possibly jittered) coordinate.
func (t *Tree) Neighbors(pos r2.Vec, radius float64, fn func(id dynamo.ID, coord r2.Vec)) {
	t.Visit(func(n *Node) bool {
		if n.Mass == 0 || n.Bounds().distance(pos) > radius {
			return true
		}
		if n.Leaf && r2.Norm(r2.Sub(pos, n.Coord)) <= radius {
			fn(n.ID, n.Coord)
		}
		return false
	})
}

// Depth returns the height of the tree. A single leaf has depth 1.
func (t *Tree) Depth() int {
	var depth func(n *Node) int
	depth = func(n *Node) int {
		d := 0
		for _, c := range n.Children {
			if c != nil {
				d = max(d, depth(c))
			}
		}
		return d + 1
	}
	return depth(t.Root)
}
