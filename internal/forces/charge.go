package forces

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Charge is an inverse-square interaction between every pair of
// particles. A positive constant repels, a negative one attracts.
//
// The displacement of a probe is Constant·alpha·m_s/d² per source, i.e.
// the force Constant·m_p·m_s/d² divided by the probe mass. A probe lying
// exactly on a source is pushed along +x at MinDistance.
type Charge struct {
	Constant float64
	// MinDistance clamps d from below.
	MinDistance float64
	// MaxDistance, when positive, ignores sources farther away.
	MaxDistance float64
}

func NewCharge(constant float64) *Charge {
	return &Charge{Constant: constant, MinDistance: 1}
}

func (c *Charge) Name() string { return "charge" }

func (c *Charge) Validate() error {
	switch {
	case math.IsNaN(c.Constant) || math.IsInf(c.Constant, 0):
		return dynamo.Invalid("charge", "constant", c.Constant)
	case !(c.MinDistance > 0):
		return dynamo.Invalid("charge", "min_distance", c.MinDistance)
	case c.MaxDistance < 0 || (c.MaxDistance > 0 && c.MaxDistance <= c.MinDistance):
		return dynamo.Invalid("charge", "max_distance", c.MaxDistance)
	}
	return nil
}

func (c *Charge) Apply(f *Frame, alpha float64) {
	if c.Constant == 0 || f.Tree == nil {
		return
	}
	kernel := c.kernel(alpha)
	f.Set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if p.Fixed || !p.IsValid() {
			return
		}
		f.Add(id, f.Tree.Accumulate(id, p.Pos, f.Theta, kernel))
	})
}

func (c *Charge) kernel(alpha float64) func(delta r2.Vec, mass float64) r2.Vec {
	k := c.Constant * alpha
	return func(delta r2.Vec, mass float64) r2.Vec {
		d := r2.Norm(delta)
		if c.MaxDistance > 0 && d > c.MaxDistance {
			return r2.Vec{}
		}
		if d == 0 {
			// probe sits on the source's stored coordinate; push along +x
			if !(c.MinDistance > 0) {
				return r2.Vec{}
			}
			return r2.Vec{X: k * mass / (c.MinDistance * c.MinDistance)}
		}
		dc := math.Max(d, c.MinDistance)
		return r2.Scale(k*mass/(dc*dc*d), delta)
	}
}

func (c *Charge) GetParams() map[string]float64 {
	return map[string]float64{
		"constant":     c.Constant,
		"min_distance": c.MinDistance,
		"max_distance": c.MaxDistance,
	}
}

func (c *Charge) SetParam(name string, value float64) error {
	switch name {
	case "constant":
		c.Constant = value
	case "min_distance":
		c.MinDistance = value
	case "max_distance":
		c.MaxDistance = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
