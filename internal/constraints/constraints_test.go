package constraints

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

func TestPosition_AlphaOnePins(t *testing.T) {
	g := NewWithT(t)

	set := dynamo.NewSet()
	p := dynamo.MustParticle(3, -7, 1)
	p.Prev = r2.Vec{X: 100, Y: 100}
	id, _ := set.Add(p)
	other, _ := set.Add(dynamo.MustParticle(1, 1, 1))

	target := r2.Vec{X: 0.1, Y: 0.7}
	PositionAt(1, map[dynamo.ID]r2.Vec{id: target}).Apply(set)

	got, _ := set.Get(id)
	g.Expect(got.Pos).To(Equal(target))
	g.Expect(got.Prev).To(Equal(r2.Vec{X: 100, Y: 100}))

	untouched, _ := set.Get(other)
	g.Expect(untouched.Pos).To(Equal(r2.Vec{X: 1, Y: 1}))
}

func TestPosition_Blend(t *testing.T) {
	tests := []struct {
		alpha float64
		want  r2.Vec
	}{
		{0, r2.Vec{X: 10, Y: 20}},
		{0.5, r2.Vec{X: 5, Y: 10}},
		{0.25, r2.Vec{X: 7.5, Y: 15}},
	}

	for _, tt := range tests {
		set := dynamo.NewSet()
		id, _ := set.Add(dynamo.MustParticle(10, 20, 1))
		PositionCenter(tt.alpha, 0, 0).Apply(set)

		p, _ := set.Get(id)
		if p.Pos != tt.want {
			t.Errorf("alpha=%v: got %v, want %v", tt.alpha, p.Pos, tt.want)
		}
	}
}

func TestPosition_SkipsFixed(t *testing.T) {
	set := dynamo.NewSet()
	p := dynamo.MustParticle(4, 4, 1)
	p.Fixed = true
	id, _ := set.Add(p)

	PositionCenter(1, 0, 0).Apply(set)

	got, _ := set.Get(id)
	if got.Pos != (r2.Vec{X: 4, Y: 4}) {
		t.Errorf("fixed particle moved to %v", got.Pos)
	}
}

func TestCollision_NoOverlapRemains(t *testing.T) {
	scattered := func(set *dynamo.Set) {
		rnd := rand.New(rand.NewSource(5))
		for i := 0; i < 120; i++ {
			p := dynamo.MustParticle(60*rnd.Float64(), 60*rnd.Float64(), 0.5+rnd.Float64())
			p.Radius = 1 + rnd.Float64()
			set.Add(p)
		}
	}
	denseRow := func(set *dynamo.Set) {
		for i := 0; i < 10; i++ {
			p := dynamo.MustParticle(0.5*float64(i), 0, 1)
			p.Radius = 5
			set.Add(p)
		}
	}
	stack := func(set *dynamo.Set) {
		for i := 0; i < 30; i++ {
			p := dynamo.MustParticle(3, 3, 1)
			p.Radius = 5
			set.Add(p)
		}
	}

	tests := []struct {
		name  string
		setup func(*dynamo.Set)
	}{
		{"scattered", scattered},
		{"dense row", denseRow},
		{"coincident stack", stack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := dynamo.NewSet()
			tt.setup(set)

			c := NewCollision(1)
			c.Apply(set)

			ids := set.IDs()
			for i, a := range ids {
				pa, _ := set.Get(a)
				for _, b := range ids[i+1:] {
					pb, _ := set.Get(b)
					d := r2.Norm(r2.Sub(pa.Pos, pb.Pos))
					if limit := pa.Radius + pb.Radius - c.Tolerance; d < limit-1e-9 {
						t.Fatalf("%v and %v overlap: distance %v < %v", a, b, d, limit)
					}
				}
			}
		})
	}
}

func TestCollision_IterationCap(t *testing.T) {
	set := dynamo.NewSet()
	for i := 0; i < 10; i++ {
		p := dynamo.MustParticle(0.5*float64(i), 0, 1)
		p.Radius = 5
		set.Add(p)
	}

	c := NewCollision(1)
	c.Iterations = 1
	c.Apply(set)

	overlapping := 0
	ids := set.IDs()
	for i, a := range ids {
		pa, _ := set.Get(a)
		for _, b := range ids[i+1:] {
			pb, _ := set.Get(b)
			if r2.Norm(r2.Sub(pa.Pos, pb.Pos)) < 10-c.Tolerance {
				overlapping++
			}
		}
	}
	if overlapping == 0 {
		t.Error("a single pass should not resolve a dense row")
	}
	if err := (&Collision{Radius: c.Radius, Iterations: -1}).Validate(); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("negative iterations: got %v", err)
	}
}

func TestCollision_CoincidentSplitAlongX(t *testing.T) {
	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
	b, _ := set.Add(dynamo.MustParticle(0, 0, 1))

	c := NewCollision(1)
	c.Tolerance = 0
	c.Apply(set)

	pa, _ := set.Get(a)
	pb, _ := set.Get(b)
	if !(pb.Pos.X > pa.Pos.X) {
		t.Errorf("higher slot should move right: a=%v b=%v", pa.Pos, pb.Pos)
	}
	if d := r2.Norm(r2.Sub(pa.Pos, pb.Pos)); math.Abs(d-2) > 1e-6 {
		t.Errorf("separation = %v, want 2", d)
	}
	if pa.Pos.Y != 0 || pb.Pos.Y != 0 {
		t.Errorf("coincident pair left the x axis: a=%v b=%v", pa.Pos, pb.Pos)
	}
}

func TestCollision_FixedParticleStays(t *testing.T) {
	set := dynamo.NewSet()
	fp := dynamo.MustParticle(0, 0, 1)
	fp.Fixed = true
	fixed, _ := set.Add(fp)
	free, _ := set.Add(dynamo.MustParticle(0.5, 0, 1))

	NewCollision(1).Apply(set)

	got, _ := set.Get(fixed)
	if *got != fp {
		t.Errorf("fixed particle changed: %+v", *got)
	}
	moved, _ := set.Get(free)
	if math.Abs(moved.Pos.X-2) > 1e-9 {
		t.Errorf("free particle at %v, want x=2", moved.Pos)
	}
}

func TestLink_EnforcesLength(t *testing.T) {
	g := NewWithT(t)

	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
	b, _ := set.Add(dynamo.MustParticle(30, 40, 3))

	c := NewLink([]dynamo.Link{{Source: a, Target: b, Length: 10}})
	g.Expect(c.Validate(set)).To(Succeed())
	c.Apply(set)

	pa, _ := set.Get(a)
	pb, _ := set.Get(b)
	g.Expect(r2.Norm(r2.Sub(pb.Pos, pa.Pos))).To(BeNumerically("~", 10, 1e-9))

	// the heavier endpoint covers a quarter of the 40 unit correction
	g.Expect(r2.Norm(r2.Sub(pb.Pos, r2.Vec{X: 30, Y: 40}))).To(BeNumerically("~", 10, 1e-9))
}

func TestLink_ChainConverges(t *testing.T) {
	set := dynamo.NewSet()
	ids := make([]dynamo.ID, 5)
	for i := range ids {
		ids[i], _ = set.Add(dynamo.MustParticle(float64(i)*3, float64(i%2), 1))
	}
	var links []dynamo.Link
	for i := 1; i < len(ids); i++ {
		links = append(links, dynamo.Link{Source: ids[i-1], Target: ids[i], Length: 5})
	}

	c := NewLink(links)
	c.Iterations = 200
	c.Apply(set)

	for _, l := range links {
		pa, _ := set.Get(l.Source)
		pb, _ := set.Get(l.Target)
		if d := r2.Norm(r2.Sub(pa.Pos, pb.Pos)); math.Abs(d-5) > 1e-6 {
			t.Errorf("link %v-%v length %v, want 5", l.Source, l.Target, d)
		}
	}
}

func TestLink_UnknownEndpointRejected(t *testing.T) {
	set := dynamo.NewSet()
	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
	b, _ := set.Add(dynamo.MustParticle(1, 0, 1))
	_ = set.Remove(b)

	c := NewLink([]dynamo.Link{{Source: a, Target: b, Length: 1}})
	if err := c.Validate(set); err == nil {
		t.Fatal("expected error for removed endpoint")
	}
}
