package constraints

import "github.com/san-kum/forcesim/internal/dynamo"

// Constraint corrects positions after integration.
type Constraint interface {
	Name() string
	Apply(set *dynamo.Set)
}

// share splits a correction between two particles by inverse mass and
// reports false when both are immovable.
func share(a, b *dynamo.Particle) (wa, wb float64, ok bool) {
	ia, ib := a.InvMass(), b.InvMass()
	sum := ia + ib
	if sum == 0 {
		return 0, 0, false
	}
	return ia / sum, ib / sum, true
}
