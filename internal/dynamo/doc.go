// Package dynamo provides the core primitives of the force layout engine.
//
// The package defines the data every other layer operates on:
//
//   - [Particle]: point mass with current and previous position
//   - [Set]: arena of particles addressed by generational [ID]s
//   - [Spring]: soft Hooke's-law connection between two particles
//   - [Link]: rigid separation between two particles
//   - [Configurable]: runtime parameter access for forces and constraints
//
// # Example
//
//	set := dynamo.NewSet()
//	a, _ := set.Add(dynamo.MustParticle(0, 0, 1))
//	b, _ := set.Add(dynamo.MustParticle(10, 0, 1))
//	spring := dynamo.Spring{Source: a, Target: b, RestLength: 5, Stiffness: 0.1}
//
// # Thread Safety
//
// Set instances are NOT thread-safe. A Set is owned by exactly one
// simulation and mutated only between or during its ticks.
package dynamo
