package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/constraints"
	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/forces"
	"github.com/san-kum/forcesim/internal/integrators"
)

func newSim(t *testing.T) *Simulation {
	t.Helper()
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero decay", func(c *Config) { c.AlphaDecay = 0 }},
		{"decay above one", func(c *Config) { c.AlphaDecay = 1.5 }},
		{"negative alpha", func(c *Config) { c.InitialAlpha = -1 }},
		{"negative epsilon", func(c *Config) { c.AlphaEpsilon = -1e-3 }},
		{"negative theta", func(c *Config) { c.Theta = -0.1 }},
		{"negative min ticks", func(c *Config) { c.MinTicks = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, dynamo.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestTick_AlphaStrictlyDecreasing(t *testing.T) {
	s := newSim(t)
	s.AddParticle(dynamo.MustParticle(0, 0, 1))

	prev := s.Alpha()
	for !s.Tick() {
		if !(s.Alpha() < prev) {
			t.Fatalf("tick %d: alpha %v not below %v", s.Ticks(), s.Alpha(), prev)
		}
		prev = s.Alpha()
	}
	if s.Alpha() >= DefaultConfig().AlphaEpsilon {
		t.Errorf("settled with alpha %v", s.Alpha())
	}
	if s.Ticks() != 342 {
		t.Errorf("settled after %d ticks, want 342", s.Ticks())
	}
}

func TestTick_MinTicksDelaysSettling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialAlpha = 0
	cfg.MinTicks = 5
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < 5; i++ {
		if s.Tick() {
			t.Fatalf("settled at tick %d", i)
		}
	}
	if !s.Tick() {
		t.Error("expected settle at MinTicks")
	}
}

func TestTick_FixedParticlesBitIdentical(t *testing.T) {
	s := newSim(t)

	fixed := dynamo.MustParticle(10, -3, 2)
	fixed.Prev = r2.Vec{X: 9.5, Y: -3.25}
	fixed.Fixed = true
	fid, _ := s.AddParticle(fixed)

	var free []dynamo.ID
	for i := 0; i < 6; i++ {
		id, _ := s.AddParticle(dynamo.MustParticle(float64(i), float64(i*i%5), 1))
		free = append(free, id)
	}
	for _, id := range free {
		if err := s.AddSpring(dynamo.Spring{Source: fid, Target: id, RestLength: 4, Stiffness: 0.2, Damping: 0.1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddLink(dynamo.Link{Source: fid, Target: free[0], Length: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetForces(forces.NewCharge(-5), forces.NewDrag(0.3), forces.NewSpring()); err != nil {
		t.Fatal(err)
	}
	if err := s.AddConstraint(constraints.PositionCenter(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddConstraint(constraints.NewCollision(1)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 200; i++ {
		s.Tick()
	}

	got, _ := s.Particle(fid)
	if got != fixed {
		t.Errorf("fixed particle changed: %+v -> %+v", fixed, got)
	}
}

func TestMutators_Errors(t *testing.T) {
	s := newSim(t)

	if _, err := s.AddParticle(dynamo.Particle{Mass: 0}); !errors.Is(err, dynamo.ErrNonPositiveMass) {
		t.Errorf("zero mass: got %v", err)
	}
	if _, err := s.AddParticle(dynamo.Particle{Mass: math.Inf(1)}); !errors.Is(err, dynamo.ErrNonPositiveMass) {
		t.Errorf("infinite mass: got %v", err)
	}
	if _, err := s.AddParticle(dynamo.Particle{Pos: r2.Vec{X: math.NaN()}, Mass: 1}); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("NaN position: got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("rejected particles stored: %d", s.Len())
	}

	a, _ := s.AddParticle(dynamo.MustParticle(0, 0, 1))
	b, _ := s.AddParticle(dynamo.MustParticle(1, 0, 1))
	if err := s.RemoveParticle(b); err != nil {
		t.Fatal(err)
	}
	c, _ := s.AddParticle(dynamo.MustParticle(2, 0, 1))
	if c.Index != b.Index {
		t.Fatalf("expected slot reuse")
	}

	if err := s.AddSpring(dynamo.Spring{Source: a, Target: b, RestLength: 1}); !errors.Is(err, dynamo.ErrUnknownParticle) {
		t.Errorf("stale id spring: got %v", err)
	}
	if err := s.AddLink(dynamo.Link{Source: b, Target: a, Length: 1}); !errors.Is(err, dynamo.ErrUnknownParticle) {
		t.Errorf("stale id link: got %v", err)
	}
	if err := s.RemoveParticle(b); !errors.Is(err, dynamo.ErrUnknownParticle) {
		t.Errorf("stale id remove: got %v", err)
	}
	if err := s.RemoveSpring(a, c); !errors.Is(err, dynamo.ErrUnknownSpring) {
		t.Errorf("missing spring: got %v", err)
	}
	if err := s.MoveParticle(b, 0, 0); !errors.Is(err, dynamo.ErrUnknownParticle) {
		t.Errorf("stale id move: got %v", err)
	}
	if err := s.MoveParticle(a, math.Inf(1), 0); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("infinite move: got %v", err)
	}
	if err := s.AddForce(&forces.Drag{Coefficient: 2}); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("invalid drag: got %v", err)
	}
}

func TestRemoveParticle_DropsAttachments(t *testing.T) {
	s := newSim(t)
	a, _ := s.AddParticle(dynamo.MustParticle(0, 0, 1))
	b, _ := s.AddParticle(dynamo.MustParticle(1, 0, 1))
	c, _ := s.AddParticle(dynamo.MustParticle(2, 0, 1))

	s.AddSpring(dynamo.Spring{Source: a, Target: b, RestLength: 1})
	s.AddSpring(dynamo.Spring{Source: b, Target: c, RestLength: 1})
	s.AddSpring(dynamo.Spring{Source: a, Target: c, RestLength: 2})
	s.AddLink(dynamo.Link{Source: a, Target: b, Length: 1})
	s.AddLink(dynamo.Link{Source: a, Target: c, Length: 2})

	if err := s.RemoveParticle(b); err != nil {
		t.Fatal(err)
	}

	springs := s.Springs()
	if len(springs) != 1 || springs[0].Source != a || springs[0].Target != c {
		t.Errorf("springs after removal: %+v", springs)
	}
	links := s.Links()
	if len(links) != 1 || links[0].Target != c {
		t.Errorf("links after removal: %+v", links)
	}
	if len(s.Constraints()) != 1 {
		t.Errorf("expected a single link constraint, got %d", len(s.Constraints()))
	}

	// the simulation keeps ticking over the hole in the arena
	s.SetForces(forces.NewSpring())
	s.Tick()
}

func TestSetRestLength(t *testing.T) {
	s := newSim(t)
	a, _ := s.AddParticle(dynamo.MustParticle(0, 0, 1))
	b, _ := s.AddParticle(dynamo.MustParticle(1, 0, 1))
	s.AddSpring(dynamo.Spring{Source: a, Target: b, RestLength: 1, Stiffness: 0.5})

	if err := s.SetRestLength(b, a, 7); err != nil {
		t.Fatal(err)
	}
	if got := s.Springs()[0].RestLength; got != 7 {
		t.Errorf("rest length = %v, want 7", got)
	}
	if err := s.SetRestLength(a, b, -1); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("negative rest length: got %v", err)
	}
	if err := s.RemoveSpring(b, a); err != nil {
		t.Errorf("RemoveSpring: %v", err)
	}
	if len(s.Springs()) != 0 {
		t.Error("spring not removed")
	}
}

type countingMetric struct{ n int }

func (m *countingMetric) Name() string        { return "count" }
func (m *countingMetric) Observe(*Simulation) { m.n++ }
func (m *countingMetric) Value() float64      { return float64(m.n) }
func (m *countingMetric) Reset()              { m.n = 0 }

func TestRun(t *testing.T) {
	s := newSim(t)
	s.AddParticle(dynamo.MustParticle(0, 0, 1))
	s.AddParticle(dynamo.MustParticle(1, 1, 1))
	s.SetForces(forces.NewCharge(1), forces.NewDrag(0.4))
	s.AddMetric(&countingMetric{})

	res, err := s.Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Settled || res.Ticks != 342 {
		t.Errorf("settled=%v ticks=%d", res.Settled, res.Ticks)
	}
	if len(res.Alpha) != res.Ticks || len(res.Energy) != res.Ticks {
		t.Errorf("history lengths %d/%d for %d ticks", len(res.Alpha), len(res.Energy), res.Ticks)
	}
	if res.Metrics["count"] != 342 {
		t.Errorf("metric = %v", res.Metrics["count"])
	}
}

func TestRun_TickLimit(t *testing.T) {
	s := newSim(t)
	s.AddParticle(dynamo.MustParticle(0, 0, 1))

	res, err := s.Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ticks != 10 || res.Settled {
		t.Errorf("ticks=%d settled=%v", res.Ticks, res.Settled)
	}
}

func TestRun_Cancelled(t *testing.T) {
	s := newSim(t)
	s.AddParticle(dynamo.MustParticle(0, 0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Ticks != 0 {
		t.Errorf("unexpected partial result %+v", res)
	}
}

func TestWithIntegrator(t *testing.T) {
	s, err := New(DefaultConfig(), WithIntegrator(integrators.NewOverdamped()))
	if err != nil {
		t.Fatal(err)
	}
	p := dynamo.MustParticle(0, 0, 1)
	p.Prev = r2.Vec{X: -1}
	id, _ := s.AddParticle(p)

	s.Tick()

	got, _ := s.Particle(id)
	if got.Pos != (r2.Vec{}) {
		t.Errorf("overdamped particle drifted to %v", got.Pos)
	}
}

func TestEnsemble(t *testing.T) {
	factory := func(seed uint64) (*Simulation, error) {
		s, err := New(DefaultConfig())
		if err != nil {
			return nil, err
		}
		s.AddParticle(dynamo.MustParticle(0, 0, 1))
		s.AddParticle(dynamo.MustParticle(float64(seed), 1, 1))
		return s, s.SetForces(forces.NewCharge(1), forces.NewDrag(0.4))
	}

	results, err := NewEnsemble(factory, 4, 1).Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if !r.Settled {
			t.Errorf("member %d did not settle", i)
		}
	}
}

func TestComponent(t *testing.T) {
	s := newSim(t)
	s.SetForces(forces.NewCharge(-30), forces.NewDrag(0.4))

	c, ok := s.Component("drag")
	if !ok {
		t.Fatal("drag not found")
	}
	if err := c.SetParam("coefficient", 0.1); err != nil {
		t.Fatal(err)
	}
	if s.Forces()[1].(*forces.Drag).Coefficient != 0.1 {
		t.Error("SetParam did not reach the force")
	}
	if _, ok := s.Component("gravity"); ok {
		t.Error("unexpected component")
	}
}

func BenchmarkTick(b *testing.B) {
	s, _ := New(DefaultConfig())
	for i := 0; i < 1000; i++ {
		s.AddParticle(dynamo.MustParticle(float64(i%40)*3, float64(i/40)*3, 1))
	}
	s.SetForces(forces.NewCharge(-30), forces.NewDrag(0.4), forces.NewSpring())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Reheat(1)
		s.Tick()
	}
}
