package forces

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Drag removes a fraction of each particle's implicit velocity per tick,
// pulling Pos back toward Prev. It does not cool with alpha.
type Drag struct {
	Coefficient float64
}

func NewDrag(coefficient float64) *Drag {
	return &Drag{Coefficient: coefficient}
}

func (d *Drag) Name() string { return "drag" }

func (d *Drag) Validate() error {
	if d.Coefficient < 0 || d.Coefficient > 1 {
		return dynamo.Invalid("drag", "coefficient", d.Coefficient)
	}
	return nil
}

func (d *Drag) Apply(f *Frame, _ float64) {
	if d.Coefficient == 0 {
		return
	}
	f.Set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if p.Fixed {
			return
		}
		f.Add(id, r2.Scale(-d.Coefficient, p.Velocity()))
	})
}

func (d *Drag) GetParams() map[string]float64 {
	return map[string]float64{"coefficient": d.Coefficient}
}

func (d *Drag) SetParam(name string, value float64) error {
	if name != "coefficient" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	d.Coefficient = value
	return nil
}
