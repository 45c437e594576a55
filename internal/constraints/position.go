package constraints

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// TargetFunc returns the target of a particle, or false to leave it alone.
type TargetFunc func(id dynamo.ID, p dynamo.Particle) (r2.Vec, bool)

// Position blends each targeted particle toward its target:
// Pos += (target - Pos)·Alpha. Alpha 1 pins exactly, 0 does nothing.
type Position struct {
	Alpha  float64
	Target TargetFunc
}

// PositionAt pulls the given particles toward fixed points.
func PositionAt(alpha float64, targets map[dynamo.ID]r2.Vec) *Position {
	return &Position{
		Alpha: alpha,
		Target: func(id dynamo.ID, _ dynamo.Particle) (r2.Vec, bool) {
			t, ok := targets[id]
			return t, ok
		},
	}
}

// PositionCenter pulls every particle toward (x, y).
func PositionCenter(alpha, x, y float64) *Position {
	c := r2.Vec{X: x, Y: y}
	return &Position{
		Alpha:  alpha,
		Target: func(dynamo.ID, dynamo.Particle) (r2.Vec, bool) { return c, true },
	}
}

func (c *Position) Name() string { return "position" }

func (c *Position) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return dynamo.Invalid("position", "alpha", c.Alpha)
	}
	if c.Target == nil {
		return &dynamo.ConfigError{Component: "position", Field: "target", Wrapped: dynamo.ErrInvalidParameter}
	}
	return nil
}

func (c *Position) Apply(set *dynamo.Set) {
	if c.Alpha == 0 || c.Target == nil {
		return
	}
	set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if p.Fixed {
			return
		}
		target, ok := c.Target(id, *p)
		if !ok {
			return
		}
		if c.Alpha == 1 {
			p.Pos = target
			return
		}
		p.Pos = r2.Add(p.Pos, r2.Scale(c.Alpha, r2.Sub(target, p.Pos)))
	})
}

func (c *Position) GetParams() map[string]float64 {
	return map[string]float64{"alpha": c.Alpha}
}

func (c *Position) SetParam(name string, value float64) error {
	if name != "alpha" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	c.Alpha = value
	return nil
}
