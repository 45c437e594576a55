package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a point mass. Pos is the current position and Prev the
// position one tick ago; their difference is the implicit velocity.
//
// A fixed particle is never moved by forces, constraints or integration.
type Particle struct {
	Pos    r2.Vec
	Prev   r2.Vec
	Mass   float64
	Fixed  bool
	Radius float64
	Key    string
}

// NewParticle creates a resting particle at (x, y).
func NewParticle(x, y, mass float64) (Particle, error) {
	if err := checkMass(mass); err != nil {
		return Particle{}, err
	}
	p := r2.Vec{X: x, Y: y}
	return Particle{Pos: p, Prev: p, Mass: mass}, nil
}

// checkMass accepts finite, strictly positive masses only.
func checkMass(mass float64) error {
	if !(mass > 0) || math.IsInf(mass, 1) {
		return &ConfigError{Component: "particle", Field: "mass", Value: mass, Wrapped: ErrNonPositiveMass}
	}
	return nil
}

// MustParticle is like NewParticle but panics on invalid mass.
// Intended for tests and literals.
func MustParticle(x, y, mass float64) Particle {
	p, err := NewParticle(x, y, mass)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Particle) X() float64 { return p.Pos.X }
func (p *Particle) Y() float64 { return p.Pos.Y }

// Velocity returns the implicit Verlet velocity Pos - Prev.
func (p *Particle) Velocity() r2.Vec {
	return r2.Sub(p.Pos, p.Prev)
}

// InvMass returns 1/Mass, or 0 for fixed particles so they absorb no
// positional correction.
func (p *Particle) InvMass() float64 {
	if p.Fixed {
		return 0
	}
	return 1 / p.Mass
}

// Place moves the particle to (x, y) and zeroes its velocity.
func (p *Particle) Place(x, y float64) {
	p.Pos = r2.Vec{X: x, Y: y}
	p.Prev = p.Pos
}

// IsValid reports whether position and velocity are finite.
func (p *Particle) IsValid() bool {
	for _, v := range [...]float64{p.Pos.X, p.Pos.Y, p.Prev.X, p.Prev.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
