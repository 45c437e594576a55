package constraints

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/quadtree"
)

// Collision pushes apart particles whose discs overlap.
//
// Each pass builds a fresh quadtree, visits particles in slot order and
// separates every pair overlapping by more than Tolerance along the line
// between their centres. Passes repeat until one finds nothing to fix.
// Exactly coincident pairs are split along +x, the higher slot moving right.
type Collision struct {
	Radius     func(p dynamo.Particle) float64
	Tolerance  float64
	// Iterations caps the number of passes. Zero runs until a pass is
	// clean, bounded only by maxPasses.
	Iterations int
}

// maxPasses stops a pass loop that cannot converge, e.g. a free particle
// squeezed between overlapping fixed ones.
const maxPasses = 1 << 16

// NewCollision uses each particle's own Radius, falling back to radius.
func NewCollision(radius float64) *Collision {
	return &Collision{
		Radius: func(p dynamo.Particle) float64 {
			if p.Radius > 0 {
				return p.Radius
			}
			return radius
		},
		Tolerance: 0.01,
	}
}

func (c *Collision) Name() string { return "collision" }

func (c *Collision) Validate() error {
	switch {
	case c.Radius == nil:
		return &dynamo.ConfigError{Component: "collision", Field: "radius", Wrapped: dynamo.ErrInvalidParameter}
	case c.Tolerance < 0:
		return dynamo.Invalid("collision", "tolerance", c.Tolerance)
	case c.Iterations < 0:
		return dynamo.Invalid("collision", "iterations", c.Iterations)
	}
	return nil
}

func (c *Collision) Apply(set *dynamo.Set) {
	if c.Radius == nil || set.Len() < 2 {
		return
	}
	passes := maxPasses
	if c.Iterations > 0 {
		passes = min(c.Iterations, maxPasses)
	}
	radii := make([]float64, set.Slots())
	for range passes {
		if c.pass(set, radii) == 0 {
			return
		}
	}
}

// pass runs one sweep and returns the number of pairs it separated.
func (c *Collision) pass(set *dynamo.Set, radii []float64) int {
	var maxR float64
	set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		radii[id.Index] = c.Radius(*p)
		maxR = math.Max(maxR, radii[id.Index])
	})
	if maxR <= 0 {
		return 0
	}

	tree := quadtree.Build(set, quadtree.Bounds{})
	fixed := 0
	set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if !p.IsValid() {
			return
		}
		ri := radii[id.Index]
		tree.Neighbors(p.Pos, ri+maxR, func(other dynamo.ID, _ r2.Vec) {
			if other.Index <= id.Index {
				return
			}
			q, ok := set.Get(other)
			if !ok {
				return
			}
			if c.separate(p, q, ri+radii[other.Index]) {
				fixed++
			}
		})
	})
	return fixed
}

func (c *Collision) separate(p, q *dynamo.Particle, reach float64) bool {
	delta := r2.Sub(q.Pos, p.Pos)
	d := r2.Norm(delta)
	overlap := reach - d
	if overlap <= c.Tolerance {
		return false
	}
	wp, wq, ok := share(p, q)
	if !ok {
		return false
	}

	axis := r2.Vec{X: 1}
	if d > 0 {
		axis = r2.Scale(1/d, delta)
	}
	p.Pos = r2.Sub(p.Pos, r2.Scale(overlap*wp, axis))
	q.Pos = r2.Add(q.Pos, r2.Scale(overlap*wq, axis))
	return true
}

func (c *Collision) GetParams() map[string]float64 {
	return map[string]float64{
		"tolerance":  c.Tolerance,
		"iterations": float64(c.Iterations),
	}
}

func (c *Collision) SetParam(name string, value float64) error {
	switch name {
	case "tolerance":
		c.Tolerance = value
	case "iterations":
		c.Iterations = int(value)
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
