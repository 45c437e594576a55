package constraints

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Link holds linked particles at their exact separation. Each pass moves
// both endpoints along their axis, heavier particles moving less.
type Link struct {
	Links      []dynamo.Link
	Iterations int
}

func NewLink(links []dynamo.Link) *Link {
	return &Link{Links: links, Iterations: 1}
}

func (c *Link) Name() string { return "link" }

func (c *Link) Validate(set *dynamo.Set) error {
	if c.Iterations < 1 {
		return dynamo.Invalid("link", "iterations", c.Iterations)
	}
	for _, l := range c.Links {
		if err := l.Validate(set); err != nil {
			return err
		}
	}
	return nil
}

func (c *Link) Apply(set *dynamo.Set) {
	for range max(c.Iterations, 1) {
		for _, l := range c.Links {
			a, okA := set.Get(l.Source)
			b, okB := set.Get(l.Target)
			if !okA || !okB {
				continue
			}
			wa, wb, ok := share(a, b)
			if !ok {
				continue
			}

			delta := r2.Sub(b.Pos, a.Pos)
			d := r2.Norm(delta)
			axis := r2.Vec{X: 1}
			if d > 0 {
				axis = r2.Scale(1/d, delta)
			}
			gap := d - l.Length
			if gap == 0 {
				continue
			}
			a.Pos = r2.Add(a.Pos, r2.Scale(gap*wa, axis))
			b.Pos = r2.Sub(b.Pos, r2.Scale(gap*wb, axis))
		}
	}
}

func (c *Link) GetParams() map[string]float64 {
	return map[string]float64{"iterations": float64(c.Iterations)}
}

func (c *Link) SetParam(name string, value float64) error {
	if name != "iterations" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	c.Iterations = int(value)
	return nil
}
