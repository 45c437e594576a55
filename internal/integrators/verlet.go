package integrators

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/forces"
)

// Verlet is position Verlet with implicit velocity:
//
//	Prev, Pos = Pos, Pos + (Pos - Prev) + displacement
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Integrate(f *forces.Frame) {
	f.Set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if p.Fixed {
			return
		}
		next := r2.Add(r2.Add(p.Pos, p.Velocity()), f.Displacement(id))
		p.Prev = p.Pos
		p.Pos = next
	})
}

// Overdamped drops inertia: a particle moves only by its displacement.
// Layouts settle faster but cannot overshoot their way out of local minima.
type Overdamped struct{}

func NewOverdamped() *Overdamped {
	return &Overdamped{}
}

func (o *Overdamped) Name() string { return "overdamped" }

func (o *Overdamped) Integrate(f *forces.Frame) {
	f.Set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		if p.Fixed {
			return
		}
		p.Prev = p.Pos
		p.Pos = r2.Add(p.Pos, f.Displacement(id))
	})
}
