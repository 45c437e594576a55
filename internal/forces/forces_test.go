package forces

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/quadtree"
)

func frameOf(set *dynamo.Set, springs []dynamo.Spring, theta float64) *Frame {
	return NewFrame(set, springs, quadtree.Build(set, quadtree.Bounds{}), theta, nil)
}

func pairwiseCharge(c *Charge, set *dynamo.Set, alpha float64) map[dynamo.ID]r2.Vec {
	out := make(map[dynamo.ID]r2.Vec)
	set.Each(func(id dynamo.ID, p *dynamo.Particle) {
		var sum r2.Vec
		set.Each(func(other dynamo.ID, q *dynamo.Particle) {
			if other == id {
				return
			}
			delta := r2.Sub(p.Pos, q.Pos)
			d := r2.Norm(delta)
			dc := math.Max(d, c.MinDistance)
			sum = r2.Add(sum, r2.Scale(c.Constant*alpha*q.Mass/(dc*dc*d), delta))
		})
		out[id] = sum
	})
	return out
}

func TestCharge_ConvergesToPairwise(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	set := dynamo.NewSet()
	for i := 0; i < 150; i++ {
		set.Add(dynamo.MustParticle(200*rnd.Float64(), 200*rnd.Float64(), 1+rnd.Float64()))
	}
	c := NewCharge(30)
	want := pairwiseCharge(c, set, 0.5)

	errAt := func(theta float64) float64 {
		f := frameOf(set, nil, theta)
		c.Apply(f, 0.5)
		var num, den float64
		for id, w := range want {
			num += r2.Norm(r2.Sub(f.Displacement(id), w))
			den += r2.Norm(w)
		}
		return num / den
	}

	coarse, fine, exact := errAt(0.9), errAt(0.2), errAt(0)
	if !(fine < coarse) {
		t.Errorf("error did not shrink with theta: 0.9 -> %v, 0.2 -> %v", coarse, fine)
	}
	if exact > 1e-12 {
		t.Errorf("theta=0 relative error %v", exact)
	}
}

func TestCharge_SignAndCutoff(t *testing.T) {
	g := NewWithT(t)

	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
	b, _ := set.Add(dynamo.MustParticle(2, 0, 1))

	repel := NewCharge(4)
	f := frameOf(set, nil, 0)
	repel.Apply(f, 1)
	g.Expect(f.Displacement(a).X).To(BeNumerically("~", -1, 1e-12))
	g.Expect(f.Displacement(b).X).To(BeNumerically("~", 1, 1e-12))

	attract := NewCharge(-4)
	f = frameOf(set, nil, 0)
	attract.Apply(f, 0.5)
	g.Expect(f.Displacement(a).X).To(BeNumerically("~", 0.5, 1e-12))

	cut := &Charge{Constant: 4, MinDistance: 0.1, MaxDistance: 1.5}
	f = frameOf(set, nil, 0)
	cut.Apply(f, 1)
	g.Expect(f.Displacement(a)).To(Equal(r2.Vec{}))
}

func TestCharge_MinDistanceClamp(t *testing.T) {
	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
	set.Add(dynamo.MustParticle(1e-9, 0, 1))

	c := &Charge{Constant: 1, MinDistance: 0.5}
	f := frameOf(set, nil, 0)
	c.Apply(f, 1)

	if got := r2.Norm(f.Displacement(a)); math.Abs(got-4) > 1e-9 {
		t.Errorf("clamped magnitude = %v, want 4", got)
	}
}

func TestCharge_CoincidentPairBothPushed(t *testing.T) {
	g := NewWithT(t)

	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
	b, _ := set.Add(dynamo.MustParticle(0, 0, 1))

	c := &Charge{Constant: 1, MinDistance: 0.5}
	f := frameOf(set, nil, 0)
	c.Apply(f, 1)

	g.Expect(r2.Norm(f.Displacement(a))).To(BeNumerically("~", 4, 1e-9))
	g.Expect(r2.Norm(f.Displacement(b))).To(BeNumerically("~", 4, 1e-9))
	g.Expect(f.Displacement(b)).To(Equal(r2.Vec{X: 4}))
}

func TestDrag(t *testing.T) {
	set := dynamo.NewSet()
	p := dynamo.MustParticle(10, 10, 1)
	p.Prev = r2.Vec{X: 8, Y: 11}
	id, _ := set.Add(p)

	fixed := dynamo.MustParticle(0, 0, 1)
	fixed.Prev = r2.Vec{X: -1}
	fixed.Fixed = true
	fid, _ := set.Add(fixed)

	f := NewFrame(set, nil, nil, 0, nil)
	NewDrag(0.25).Apply(f, 1)

	if got := f.Displacement(id); got != (r2.Vec{X: -0.5, Y: 0.25}) {
		t.Errorf("displacement = %v", got)
	}
	if got := f.Displacement(fid); got != (r2.Vec{}) {
		t.Errorf("fixed particle got displacement %v", got)
	}
}

func TestSpring_AtRestContributesNothing(t *testing.T) {
	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(3, 4, 1))
	b, _ := set.Add(dynamo.MustParticle(6, 8, 2))
	springs := []dynamo.Spring{{Source: a, Target: b, RestLength: 5, Stiffness: 0.7, Damping: 0.3}}

	f := NewFrame(set, springs, nil, 0, nil)
	NewSpring().Apply(f, 1)

	if f.Displacement(a) != (r2.Vec{}) || f.Displacement(b) != (r2.Vec{}) {
		t.Errorf("spring at rest moved endpoints: %v %v", f.Displacement(a), f.Displacement(b))
	}
}

func TestSpring_InverseMassSplit(t *testing.T) {
	g := NewWithT(t)

	tests := []struct {
		name         string
		massA, massB float64
		fixedB       bool
		wantA, wantB float64
	}{
		{"equal", 1, 1, false, 1, -1},
		{"heavy target", 1, 3, false, 1.5, -0.5},
		{"fixed target", 1, 1, true, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := dynamo.NewSet()
			a, _ := set.Add(dynamo.MustParticle(0, 0, tt.massA))
			pb := dynamo.MustParticle(12, 0, tt.massB)
			pb.Fixed = tt.fixedB
			b, _ := set.Add(pb)

			springs := []dynamo.Spring{{Source: a, Target: b, RestLength: 10, Stiffness: 1}}
			f := NewFrame(set, springs, nil, 0, nil)
			NewSpring().Apply(f, 1)

			g.Expect(f.Displacement(a).X).To(BeNumerically("~", tt.wantA, 1e-12))
			g.Expect(f.Displacement(b).X).To(BeNumerically("~", tt.wantB, 1e-12))
		})
	}
}

func TestSpring_DampingOpposesSeparation(t *testing.T) {
	set := dynamo.NewSet()
	pa := dynamo.MustParticle(0, 0, 1)
	pa.Prev = r2.Vec{X: 1}
	a, _ := set.Add(pa)
	pb := dynamo.MustParticle(10, 0, 1)
	pb.Prev = r2.Vec{X: 9}
	b, _ := set.Add(pb)

	springs := []dynamo.Spring{{Source: a, Target: b, RestLength: 10, Stiffness: 1, Damping: 0.5}}
	f := NewFrame(set, springs, nil, 0, nil)
	NewSpring().Apply(f, 1)

	// separating at relative speed 2, so each end is pulled back by 0.5
	if got := f.Displacement(a).X; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("source displacement = %v, want 0.5", got)
	}
	if got := f.Displacement(b).X; math.Abs(got+0.5) > 1e-12 {
		t.Errorf("target displacement = %v, want -0.5", got)
	}
}

func TestSpring_CoincidentEndpointsUseXAxis(t *testing.T) {
	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(5, 5, 1))
	b, _ := set.Add(dynamo.MustParticle(5, 5, 1))
	springs := []dynamo.Spring{{Source: a, Target: b, RestLength: 2, Stiffness: 1}}

	f := NewFrame(set, springs, nil, 0, nil)
	NewSpring().Apply(f, 1)

	if got := f.Displacement(b); got != (r2.Vec{X: 1}) {
		t.Errorf("target displacement = %v, want (1, 0)", got)
	}
	if got := f.Displacement(a); got != (r2.Vec{X: -1}) {
		t.Errorf("source displacement = %v, want (-1, 0)", got)
	}
}

func TestConfigurable(t *testing.T) {
	tests := []struct {
		name  string
		force dynamo.Configurable
		param string
	}{
		{"charge", NewCharge(1), "constant"},
		{"drag", NewDrag(0.1), "coefficient"},
		{"spring", NewSpring(), "strength"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.force.SetParam(tt.param, 0.75); err != nil {
				t.Fatalf("SetParam: %v", err)
			}
			if got := tt.force.GetParams()[tt.param]; got != 0.75 {
				t.Errorf("%s = %v after SetParam", tt.param, got)
			}
			if err := tt.force.SetParam("nope", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
				t.Errorf("expected ErrUnknownParam, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	bad := []interface{ Validate() error }{
		&Charge{Constant: 1, MinDistance: 0},
		&Charge{Constant: math.NaN(), MinDistance: 1},
		&Charge{Constant: 1, MinDistance: 2, MaxDistance: 1},
		&Drag{Coefficient: 1.5},
		&Spring{Strength: -1},
	}
	for i, v := range bad {
		if err := v.Validate(); !errors.Is(err, dynamo.ErrInvalidParameter) {
			t.Errorf("case %d: expected ErrInvalidParameter, got %v", i, err)
		}
	}
	if err := NewCharge(-30).Validate(); err != nil {
		t.Errorf("default charge invalid: %v", err)
	}
}
