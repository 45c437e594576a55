package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/sim"
)

// MaxDisplacement is the largest distance any particle moved during the
// last observed tick.
type MaxDisplacement struct {
	name string
	last float64
}

func NewMaxDisplacement() *MaxDisplacement {
	return &MaxDisplacement{name: "max_displacement"}
}

func (m *MaxDisplacement) Name() string { return m.name }

func (m *MaxDisplacement) Observe(s *sim.Simulation) {
	m.last = 0
	s.Each(func(_ dynamo.ID, p dynamo.Particle) {
		m.last = math.Max(m.last, r2.Norm(p.Velocity()))
	})
}

func (m *MaxDisplacement) Value() float64 { return m.last }

func (m *MaxDisplacement) Reset() { m.last = 0 }
