package sim

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/constraints"
	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/forces"
	"github.com/san-kum/forcesim/internal/integrators"
	"github.com/san-kum/forcesim/internal/quadtree"
)

// Simulation owns a particle set, its springs and the ordered force and
// constraint lists, and advances them one Tick at a time while alpha cools.
//
// A Simulation is not safe for concurrent use.
type Simulation struct {
	cfg         Config
	set         *dynamo.Set
	springs     []dynamo.Spring
	forces      []forces.Force
	constraints []constraints.Constraint
	integrator  integrators.Integrator

	alpha   float64
	ticks   int
	settled bool

	metrics   []Metric
	observers []Observer
	logger    *log.Logger
}

type Option func(*Simulation)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulation) { s.integrator = i }
}

// New creates an empty, active simulation.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:        cfg,
		set:        dynamo.NewSet(),
		integrator: integrators.NewVerlet(),
		alpha:      cfg.InitialAlpha,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulation) Config() Config { return s.cfg }
func (s *Simulation) Alpha() float64 { return s.alpha }
func (s *Simulation) Theta() float64 { return s.cfg.Theta }
func (s *Simulation) Ticks() int     { return s.ticks }
func (s *Simulation) Settled() bool  { return s.settled }

func (s *Simulation) Integrator() integrators.Integrator { return s.integrator }

// SetTheta changes the Barnes–Hut accuracy from the next tick on.
func (s *Simulation) SetTheta(theta float64) error {
	cfg := s.cfg
	cfg.Theta = theta
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Tick advances the simulation by one step and reports whether it has
// settled. Once settled, Tick does nothing until Reheat.
func (s *Simulation) Tick() bool {
	if s.settled {
		return true
	}

	tree := quadtree.Build(s.set, quadtree.Bounds{})
	buf := displacements.Get(s.set.Slots())
	frame := forces.NewFrame(s.set, s.springs, tree, s.cfg.Theta, *buf)

	for _, f := range s.forces {
		f.Apply(frame, s.alpha)
	}
	s.integrator.Integrate(frame)
	*buf = frame.Buffer()
	displacements.Put(buf)

	for _, c := range s.constraints {
		c.Apply(s.set)
	}

	s.alpha *= s.cfg.AlphaDecay
	s.ticks++
	if s.alpha < s.cfg.AlphaEpsilon && s.ticks >= s.cfg.MinTicks {
		s.settled = true
		s.logger.Debug("settled", "ticks", s.ticks, "alpha", s.alpha, "particles", s.set.Len())
	}
	return s.settled
}

// Reheat sets alpha and makes the simulation active again. A non-positive
// alpha restarts from the configured initial alpha.
func (s *Simulation) Reheat(alpha float64) {
	if !(alpha > 0) {
		alpha = s.cfg.InitialAlpha
	}
	s.alpha = alpha
	s.settled = false
	s.logger.Debug("reheated", "alpha", alpha, "ticks", s.ticks)
}

// KineticEnergy returns Σ ½·m·|Pos - Prev|² over non-fixed particles.
func (s *Simulation) KineticEnergy() float64 {
	var e float64
	s.set.Each(func(_ dynamo.ID, p *dynamo.Particle) {
		if !p.Fixed {
			e += 0.5 * p.Mass * r2.Norm2(p.Velocity())
		}
	})
	return e
}

// AddParticle inserts p and returns its ID.
func (s *Simulation) AddParticle(p dynamo.Particle) (dynamo.ID, error) {
	return s.set.Add(p)
}

// RemoveParticle deletes the particle together with every spring and link
// attached to it.
func (s *Simulation) RemoveParticle(id dynamo.ID) error {
	if err := s.set.Remove(id); err != nil {
		return err
	}
	s.springs = dropSprings(s.springs, id)
	for _, c := range s.constraints {
		if l, ok := c.(*constraints.Link); ok {
			l.Links = dropLinks(l.Links, id)
		}
	}
	return nil
}

func dropSprings(springs []dynamo.Spring, id dynamo.ID) []dynamo.Spring {
	kept := springs[:0]
	for _, sp := range springs {
		if !sp.Touches(id) {
			kept = append(kept, sp)
		}
	}
	return kept
}

func dropLinks(links []dynamo.Link, id dynamo.ID) []dynamo.Link {
	kept := links[:0]
	for _, l := range links {
		if !l.Touches(id) {
			kept = append(kept, l)
		}
	}
	return kept
}

// Particle returns a copy of the particle.
func (s *Simulation) Particle(id dynamo.ID) (dynamo.Particle, bool) {
	p, ok := s.set.Get(id)
	if !ok {
		return dynamo.Particle{}, false
	}
	return *p, true
}

// MoveParticle places a particle at (x, y) at rest.
func (s *Simulation) MoveParticle(id dynamo.ID, x, y float64) error {
	p, ok := s.set.Get(id)
	if !ok {
		return &dynamo.ConfigError{Component: "particle", Field: "id", Value: id, Wrapped: dynamo.ErrUnknownParticle}
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return dynamo.Invalid("particle", "position", r2.Vec{X: x, Y: y})
	}
	p.Place(x, y)
	return nil
}

// Positions returns the current position of every particle.
func (s *Simulation) Positions() map[dynamo.ID]r2.Vec {
	out := make(map[dynamo.ID]r2.Vec, s.set.Len())
	s.set.Each(func(id dynamo.ID, p *dynamo.Particle) { out[id] = p.Pos })
	return out
}

// Each calls fn with a copy of every particle in slot order.
func (s *Simulation) Each(fn func(id dynamo.ID, p dynamo.Particle)) {
	s.set.Each(func(id dynamo.ID, p *dynamo.Particle) { fn(id, *p) })
}

func (s *Simulation) Len() int { return s.set.Len() }

// Lookup resolves a particle key.
func (s *Simulation) Lookup(key string) (dynamo.ID, bool) { return s.set.Lookup(key) }

// AddSpring validates sp and appends it.
func (s *Simulation) AddSpring(sp dynamo.Spring) error {
	if err := sp.Validate(s.set); err != nil {
		return err
	}
	s.springs = append(s.springs, sp)
	return nil
}

// RemoveSpring deletes the first spring between source and target, in
// either direction.
func (s *Simulation) RemoveSpring(source, target dynamo.ID) error {
	i := s.findSpring(source, target)
	if i < 0 {
		return &dynamo.ConfigError{Component: "spring", Field: "endpoints", Value: [2]dynamo.ID{source, target}, Wrapped: dynamo.ErrUnknownSpring}
	}
	s.springs = append(s.springs[:i], s.springs[i+1:]...)
	return nil
}

// SetRestLength changes the rest length of the spring between source and
// target.
func (s *Simulation) SetRestLength(source, target dynamo.ID, length float64) error {
	i := s.findSpring(source, target)
	if i < 0 {
		return &dynamo.ConfigError{Component: "spring", Field: "endpoints", Value: [2]dynamo.ID{source, target}, Wrapped: dynamo.ErrUnknownSpring}
	}
	if !(length >= 0) {
		return dynamo.Invalid("spring", "rest_length", length)
	}
	s.springs[i].RestLength = length
	return nil
}

func (s *Simulation) findSpring(source, target dynamo.ID) int {
	for i, sp := range s.springs {
		if (sp.Source == source && sp.Target == target) || (sp.Source == target && sp.Target == source) {
			return i
		}
	}
	return -1
}

// Springs returns a copy of the spring list.
func (s *Simulation) Springs() []dynamo.Spring {
	return append([]dynamo.Spring(nil), s.springs...)
}

// AddLink validates l and adds it to the first Link constraint, appending
// a new one to the constraint list when there is none.
func (s *Simulation) AddLink(l dynamo.Link) error {
	if err := l.Validate(s.set); err != nil {
		return err
	}
	for _, c := range s.constraints {
		if lc, ok := c.(*constraints.Link); ok {
			lc.Links = append(lc.Links, l)
			return nil
		}
	}
	s.constraints = append(s.constraints, constraints.NewLink([]dynamo.Link{l}))
	return nil
}

// Links returns every link held by the simulation's Link constraints.
func (s *Simulation) Links() []dynamo.Link {
	var out []dynamo.Link
	for _, c := range s.constraints {
		if lc, ok := c.(*constraints.Link); ok {
			out = append(out, lc.Links...)
		}
	}
	return out
}

type validator interface{ Validate() error }

type setValidator interface{ Validate(set *dynamo.Set) error }

func (s *Simulation) validate(v any) error {
	switch c := v.(type) {
	case validator:
		return c.Validate()
	case setValidator:
		return c.Validate(s.set)
	}
	return nil
}

// SetForces replaces the force list. Forces apply in the given order.
func (s *Simulation) SetForces(fs ...forces.Force) error {
	for _, f := range fs {
		if err := s.validate(f); err != nil {
			return err
		}
	}
	s.forces = append([]forces.Force(nil), fs...)
	return nil
}

func (s *Simulation) AddForce(f forces.Force) error {
	if err := s.validate(f); err != nil {
		return err
	}
	s.forces = append(s.forces, f)
	return nil
}

func (s *Simulation) Forces() []forces.Force {
	return append([]forces.Force(nil), s.forces...)
}

// SetConstraints replaces the constraint list. Constraints apply in the
// given order.
func (s *Simulation) SetConstraints(cs ...constraints.Constraint) error {
	for _, c := range cs {
		if err := s.validate(c); err != nil {
			return err
		}
	}
	s.constraints = append([]constraints.Constraint(nil), cs...)
	return nil
}

func (s *Simulation) AddConstraint(c constraints.Constraint) error {
	if err := s.validate(c); err != nil {
		return err
	}
	s.constraints = append(s.constraints, c)
	return nil
}

func (s *Simulation) Constraints() []constraints.Constraint {
	return append([]constraints.Constraint(nil), s.constraints...)
}

// Component returns the first force or constraint with the given name.
func (s *Simulation) Component(name string) (dynamo.Configurable, bool) {
	for _, f := range s.forces {
		if f.Name() == name {
			c, ok := f.(dynamo.Configurable)
			return c, ok
		}
	}
	for _, c := range s.constraints {
		if c.Name() == name {
			cc, ok := c.(dynamo.Configurable)
			return cc, ok
		}
	}
	return nil, false
}
