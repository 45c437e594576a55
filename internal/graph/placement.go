package graph

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

// golden angle in radians
var phyllotaxisAngle = math.Pi * (3 - math.Sqrt(5))

// Placer returns a starting position for the i-th of n nodes.
type Placer interface {
	Place(i, n int) r2.Vec
}

// Phyllotaxis spreads nodes on a sunflower spiral, which is even and
// deterministic without any randomness.
type Phyllotaxis struct {
	Scale float64
}

func (p Phyllotaxis) Place(i, _ int) r2.Vec {
	r := p.Scale * math.Sqrt(0.5+float64(i))
	a := float64(i) * phyllotaxisAngle
	return r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

// Random draws positions uniformly from a square whose side grows with
// the square root of n, so density stays constant.
type Random struct {
	Scale float64
	rnd   *rand.Rand
}

func NewRandom(scale float64, seed uint64) *Random {
	return &Random{Scale: scale, rnd: rand.New(rand.NewSource(seed))}
}

func (p *Random) Place(_, n int) r2.Vec {
	half := p.Scale * math.Sqrt(float64(max(n, 1)))
	return r2.Vec{
		X: half * (2*p.rnd.Float64() - 1),
		Y: half * (2*p.rnd.Float64() - 1),
	}
}

// Noise offsets the phyllotaxis spiral by a Perlin noise field, giving an
// organic but reproducible start.
type Noise struct {
	Scale  float64
	spiral Phyllotaxis
	field  *perlin.Perlin
}

func NewNoise(scale float64, seed uint64) *Noise {
	return &Noise{
		Scale:  scale,
		spiral: Phyllotaxis{Scale: scale},
		field:  perlin.NewPerlin(2, 2, 3, int64(seed)),
	}
}

func (p *Noise) Place(i, n int) r2.Vec {
	base := p.spiral.Place(i, n)
	u := base.X / (p.Scale * 4)
	v := base.Y / (p.Scale * 4)
	return r2.Vec{
		X: base.X + 2*p.Scale*p.field.Noise2D(u, v),
		Y: base.Y + 2*p.Scale*p.field.Noise2D(v+17.3, u-5.1),
	}
}

// NewPlacer returns the placer for a strategy name: phyllotaxis, random
// or perlin.
func NewPlacer(strategy string, scale float64, seed uint64) (Placer, error) {
	if !(scale > 0) {
		scale = 10
	}
	switch strategy {
	case "", "phyllotaxis":
		return Phyllotaxis{Scale: scale}, nil
	case "random":
		return NewRandom(scale, seed), nil
	case "perlin":
		return NewNoise(scale, seed), nil
	}
	return nil, fmt.Errorf("unknown placement strategy: %s", strategy)
}

// Strategies lists the names accepted by NewPlacer.
func Strategies() []string {
	return []string{"phyllotaxis", "random", "perlin"}
}

// Place fills in coordinates for every node that lacks them. Nodes with
// both coordinates are left untouched.
func Place(g *Graph, p Placer) {
	n := len(g.Nodes)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Placed() {
			continue
		}
		pos := p.Place(i, n)
		x, y := pos.X, pos.Y
		if node.X != nil {
			x = *node.X
		}
		if node.Y != nil {
			y = *node.Y
		}
		node.X, node.Y = &x, &y
	}
}
