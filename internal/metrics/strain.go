package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/sim"
)

// SpringStrain is the mean relative deviation |d - L| / L of all springs
// after the last observed tick. Springs with zero rest length contribute
// their absolute length.
type SpringStrain struct {
	name string
	last float64
}

func NewSpringStrain() *SpringStrain {
	return &SpringStrain{name: "spring_strain"}
}

func (m *SpringStrain) Name() string { return m.name }

func (m *SpringStrain) Observe(s *sim.Simulation) {
	m.last = Strain(s)
}

func (m *SpringStrain) Value() float64 { return m.last }

func (m *SpringStrain) Reset() { m.last = 0 }

// Strain computes the current mean spring strain of s.
func Strain(s *sim.Simulation) float64 {
	springs := s.Springs()
	if len(springs) == 0 {
		return 0
	}
	var sum float64
	for _, sp := range springs {
		a, okA := s.Particle(sp.Source)
		b, okB := s.Particle(sp.Target)
		if !okA || !okB {
			continue
		}
		sum += strainOf(sp, a, b)
	}
	return sum / float64(len(springs))
}

func strainOf(sp dynamo.Spring, a, b dynamo.Particle) float64 {
	d := r2.Norm(r2.Sub(a.Pos, b.Pos))
	if sp.RestLength == 0 {
		return d
	}
	return math.Abs(d-sp.RestLength) / sp.RestLength
}

// Stability is the fraction of observed ticks in which every particle
// position stayed finite.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (m *Stability) Name() string { return m.name }

func (m *Stability) Observe(s *sim.Simulation) {
	m.samples++
	valid := true
	s.Each(func(_ dynamo.ID, p dynamo.Particle) {
		if !p.IsValid() {
			valid = false
		}
	})
	if !valid {
		m.violations++
	}
}

func (m *Stability) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples)
}

func (m *Stability) Reset() {
	m.violations = 0
	m.samples = 0
}
