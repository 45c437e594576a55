package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Bounds is an axis-aligned square.
type Bounds struct {
	Min  r2.Vec
	Size float64
}

func (b Bounds) IsZero() bool { return b.Size == 0 }

func (b Bounds) Max() r2.Vec {
	return r2.Vec{X: b.Min.X + b.Size, Y: b.Min.Y + b.Size}
}

func (b Bounds) Center() r2.Vec {
	return r2.Vec{X: b.Min.X + b.Size/2, Y: b.Min.Y + b.Size/2}
}

// Contains reports whether p lies inside the closed square.
func (b Bounds) Contains(p r2.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Min.X+b.Size &&
		p.Y >= b.Min.Y && p.Y <= b.Min.Y+b.Size
}

// distance returns the distance from p to the closest point of the square.
func (b Bounds) distance(p r2.Vec) float64 {
	dx := math.Max(math.Max(b.Min.X-p.X, 0), p.X-(b.Min.X+b.Size))
	dy := math.Max(math.Max(b.Min.Y-p.Y, 0), p.Y-(b.Min.Y+b.Size))
	return math.Hypot(dx, dy)
}

// cover doubles the square toward p until it contains p.
func (b Bounds) cover(p r2.Vec) Bounds {
	if !(b.Size > 0) {
		b.Size = 1
	}
	for !b.Contains(p) {
		if p.X < b.Min.X {
			b.Min.X -= b.Size
		}
		if p.Y < b.Min.Y {
			b.Min.Y -= b.Size
		}
		b.Size *= 2
	}
	return b
}

// BoundsOf returns a square covering every valid particle in set, padded
// by 10% of the larger extent on each side and never smaller than 1.
func BoundsOf(set *dynamo.Set) Bounds {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	set.Each(func(_ dynamo.ID, p *dynamo.Particle) {
		if !p.IsValid() {
			return
		}
		minX = math.Min(minX, p.Pos.X)
		minY = math.Min(minY, p.Pos.Y)
		maxX = math.Max(maxX, p.Pos.X)
		maxY = math.Max(maxY, p.Pos.Y)
	})
	if math.IsInf(minX, 1) {
		return Bounds{Min: r2.Vec{X: -0.5, Y: -0.5}, Size: 1}
	}

	extent := math.Max(maxX-minX, maxY-minY)
	size := math.Max(extent*1.2, 1)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return Bounds{Min: r2.Vec{X: cx - size/2, Y: cy - size/2}, Size: size}
}
