package integrators

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/forces"
)

func TestVerlet_CarriesVelocity(t *testing.T) {
	set := dynamo.NewSet()
	p := dynamo.MustParticle(10, 0, 1)
	p.Prev = r2.Vec{X: 9}
	id, _ := set.Add(p)

	f := forces.NewFrame(set, nil, nil, 0, nil)
	f.Add(id, r2.Vec{Y: 2})
	NewVerlet().Integrate(f)

	got, _ := set.Get(id)
	if got.Pos != (r2.Vec{X: 11, Y: 2}) {
		t.Errorf("Pos = %v, want (11, 2)", got.Pos)
	}
	if got.Prev != (r2.Vec{X: 10}) {
		t.Errorf("Prev = %v, want (10, 0)", got.Prev)
	}
}

func TestOverdamped_IgnoresVelocity(t *testing.T) {
	set := dynamo.NewSet()
	p := dynamo.MustParticle(10, 0, 1)
	p.Prev = r2.Vec{X: 9}
	id, _ := set.Add(p)

	f := forces.NewFrame(set, nil, nil, 0, nil)
	f.Add(id, r2.Vec{Y: 2})
	NewOverdamped().Integrate(f)

	got, _ := set.Get(id)
	if got.Pos != (r2.Vec{X: 10, Y: 2}) {
		t.Errorf("Pos = %v, want (10, 2)", got.Pos)
	}
}

func TestIntegrators_SkipFixed(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := New(name)
			if err != nil {
				t.Fatal(err)
			}
			set := dynamo.NewSet()
			p := dynamo.MustParticle(1, 2, 1)
			p.Prev = r2.Vec{X: 0.5, Y: 2.5}
			p.Fixed = true
			id, _ := set.Add(p)

			f := forces.NewFrame(set, nil, nil, 0, nil)
			f.Add(id, r2.Vec{X: 100, Y: 100})
			integ.Integrate(f)

			got, _ := set.Get(id)
			if *got != p {
				t.Errorf("fixed particle changed: %+v -> %+v", p, *got)
			}
		})
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("rk4"); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func benchSet(n int) *dynamo.Set {
	rnd := rand.New(rand.NewSource(1))
	set := dynamo.NewSet()
	for i := 0; i < n; i++ {
		set.Add(dynamo.MustParticle(rnd.Float64()*100, rnd.Float64()*100, 1))
	}
	return set
}

func BenchmarkVerlet(b *testing.B) {
	set := benchSet(5000)
	f := forces.NewFrame(set, nil, nil, 0, nil)
	integ := NewVerlet()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Integrate(f)
	}
}

func BenchmarkOverdamped(b *testing.B) {
	set := benchSet(5000)
	f := forces.NewFrame(set, nil, nil, 0, nil)
	integ := NewOverdamped()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Integrate(f)
	}
}
