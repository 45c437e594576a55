package forces

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Spring pulls the endpoints of every spring in the frame toward the
// spring's rest length. Per tick the gap closes by
//
//	Strength·Stiffness·(d - RestLength)·alpha + Damping·vr
//
// where vr is the relative velocity along the spring axis. The closure is
// shared by inverse mass, so a fixed endpoint takes none of it.
type Spring struct {
	Strength float64
}

func NewSpring() *Spring {
	return &Spring{Strength: 1}
}

func (s *Spring) Name() string { return "spring" }

func (s *Spring) Validate() error {
	if s.Strength < 0 {
		return dynamo.Invalid("spring", "strength", s.Strength)
	}
	return nil
}

func (s *Spring) Apply(f *Frame, alpha float64) {
	for _, sp := range f.Springs {
		a, okA := f.Set.Get(sp.Source)
		b, okB := f.Set.Get(sp.Target)
		if !okA || !okB {
			continue
		}
		wa, wb := a.InvMass(), b.InvMass()
		if wa+wb == 0 {
			continue
		}

		delta := r2.Sub(b.Pos, a.Pos)
		d := r2.Norm(delta)
		axis := r2.Vec{X: 1}
		if d > 0 {
			axis = r2.Scale(1/d, delta)
		}

		vr := r2.Dot(r2.Sub(b.Velocity(), a.Velocity()), axis)
		closure := s.Strength*sp.Stiffness*(d-sp.RestLength)*alpha + sp.Damping*vr
		if closure == 0 {
			continue
		}

		sum := wa + wb
		f.Add(sp.Source, r2.Scale(closure*wa/sum, axis))
		f.Add(sp.Target, r2.Scale(-closure*wb/sum, axis))
	}
}

func (s *Spring) GetParams() map[string]float64 {
	return map[string]float64{"strength": s.Strength}
}

func (s *Spring) SetParam(name string, value float64) error {
	if name != "strength" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	s.Strength = value
	return nil
}
