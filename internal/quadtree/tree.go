package quadtree

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Quadrant indices into Node.Children.
const (
	NW = iota
	NE
	SW
	SE
)

const (
	// coincidence threshold relative to the root size
	coincidentScale = 0x1p-40
	// jitter radius relative to the root size
	jitterScale = 0x1p-30
	// past this depth two points are treated as coincident regardless of
	// distance, float midpoints stop separating them
	maxDepth = 64

	jitterSeed = 0x5eed
)

// Node is a square region of the tree. A leaf (no children) holds exactly
// one particle; an internal node aggregates its children.
type Node struct {
	Min      r2.Vec
	Size     float64
	Mass     float64
	Centroid r2.Vec
	Children [4]*Node

	// leaf payload
	ID    dynamo.ID
	Coord r2.Vec
	Leaf  bool
}

func (n *Node) Bounds() Bounds { return Bounds{Min: n.Min, Size: n.Size} }

// IsInternal reports whether the node has at least one child.
func (n *Node) IsInternal() bool {
	return n.Children != [4]*Node{}
}

type stored struct {
	gen   uint32
	coord r2.Vec
	ok    bool
}

// Tree is a Barnes–Hut quadtree over one snapshot of particle positions.
// It is immutable once built.
type Tree struct {
	Root *Node

	n      int
	coords []stored
	rng    *rand.Rand
	eps    float64
}

// Build inserts every live particle of set. A zero bounds value selects
// BoundsOf(set); given bounds grow to cover particles outside them.
// Particles with non-finite coordinates are left out.
func Build(set *dynamo.Set, bounds Bounds) *Tree {
	if bounds.IsZero() {
		bounds = BoundsOf(set)
	}
	set.Each(func(_ dynamo.ID, p *dynamo.Particle) {
		if p.IsValid() {
			bounds = bounds.cover(p.Pos)
		}
	})

	t := &Tree{
		Root:   &Node{Min: bounds.Min, Size: bounds.Size},
		coords: make([]stored, set.Slots()),
		eps:    bounds.Size * coincidentScale,
	}
	set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if p.IsValid() {
			t.insert(id, p.Pos, p.Mass)
		}
	})
	aggregate(t.Root)
	return t
}

// Len returns the number of stored particles.
func (t *Tree) Len() int { return t.n }

// Coord returns the coordinate stored for id. It differs from the
// particle position only when the insertion was jittered.
func (t *Tree) Coord(id dynamo.ID) (r2.Vec, bool) {
	if int(id.Index) >= len(t.coords) {
		return r2.Vec{}, false
	}
	s := t.coords[id.Index]
	if !s.ok || s.gen != id.Gen {
		return r2.Vec{}, false
	}
	return s.coord, true
}

func (t *Tree) insert(id dynamo.ID, c r2.Vec, mass float64) {
	n, depth := t.Root, 0
	for {
		if !n.Leaf && !n.IsInternal() {
			n.Leaf, n.ID, n.Coord, n.Mass = true, id, c, mass
			break
		}
		if n.Leaf {
			if depth >= maxDepth || t.coincident(n.Coord, c) {
				c = t.jitter(n.Coord)
				n, depth = t.Root, 0
				continue
			}
			// push the resident down one level
			old := *n
			n.Leaf, n.ID, n.Coord, n.Mass = false, dynamo.ID{}, r2.Vec{}, 0
			child := n.child(quadrant(n, old.Coord))
			child.Leaf, child.ID, child.Coord, child.Mass = true, old.ID, old.Coord, old.Mass
		}
		n = n.child(quadrant(n, c))
		depth++
	}

	t.n++
	t.coords[id.Index] = stored{gen: id.Gen, coord: c, ok: true}
}

func (t *Tree) coincident(a, b r2.Vec) bool {
	return a == b || r2.Norm(r2.Sub(a, b)) < t.eps
}

// jitter returns a point near c that is not coincident with it and stays
// inside the root square.
func (t *Tree) jitter(c r2.Vec) r2.Vec {
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(jitterSeed))
	}
	r := t.Root.Size * jitterScale
	lo, hi := t.Root.Min, t.Root.Bounds().Max()
	for {
		j := r2.Vec{
			X: clamp(c.X+r*(2*t.rng.Float64()-1), lo.X, hi.X),
			Y: clamp(c.Y+r*(2*t.rng.Float64()-1), lo.Y, hi.Y),
		}
		if !t.coincident(c, j) {
			return j
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func quadrant(n *Node, c r2.Vec) int {
	h := n.Size / 2
	q := NW
	if c.X >= n.Min.X+h {
		q |= NE
	}
	if c.Y >= n.Min.Y+h {
		q |= SW
	}
	return q
}

// child returns the child in quadrant q, creating it if needed.
func (n *Node) child(q int) *Node {
	if c := n.Children[q]; c != nil {
		return c
	}
	h := n.Size / 2
	c := &Node{Min: n.Min, Size: h}
	if q&NE != 0 {
		c.Min.X += h
	}
	if q&SW != 0 {
		c.Min.Y += h
	}
	n.Children[q] = c
	return c
}

func aggregate(n *Node) {
	if n.Leaf {
		n.Centroid = n.Coord
		return
	}
	var mass float64
	var sum r2.Vec
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		aggregate(c)
		mass += c.Mass
		sum = r2.Add(sum, r2.Scale(c.Mass, c.Centroid))
	}
	n.Mass = mass
	if mass > 0 {
		n.Centroid = r2.Scale(1/mass, sum)
	} else {
		n.Centroid = n.Bounds().Center()
	}
}
