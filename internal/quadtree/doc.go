// Package quadtree implements the Barnes–Hut spatial index used by the
// layout engine.
//
// A [Tree] is built from scratch every tick from the current particle
// positions. Each internal node aggregates the mass and mass-weighted
// centroid of its subtree so that far-away clusters can be evaluated as a
// single pseudo-particle:
//
//   - [Build]: insert every live particle of a set
//   - [Tree.Accumulate]: sum a pairwise kernel over the tree for one probe
//   - [Tree.Neighbors]: report stored particles within a radius
//   - [Tree.Visit]: pre-order traversal with subtree pruning
//
// # Coincident Points
//
// Two particles at the same coordinate would subdivide forever. When an
// insertion lands on an occupied leaf at (nearly) the same coordinate, the
// incoming coordinate is moved by a tiny deterministic jitter. Only the
// coordinate stored in the tree changes; particle state is never touched.
//
// # Orientation
//
// Children are ordered NW, NE, SW, SE with y growing downward.
package quadtree
