// Package constraints implements post-integration position corrections.
//
// A [Constraint] moves particles directly, after forces and integration,
// so its corrections are visible to the next tick's force evaluation.
// Fixed particles are never moved.
//
//   - [Position]: blend toward a target point
//   - [Collision]: separate overlapping discs using the quadtree
//   - [Link]: enforce rigid separations
package constraints
