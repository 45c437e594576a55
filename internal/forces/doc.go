// Package forces implements the per-tick forces of the layout engine.
//
// Every [Force] writes into the displacement buffer of a [Frame]; none of
// them moves a particle directly. Forces run in the order the simulation
// lists them:
//
//   - [Charge]: pairwise inverse-square repulsion or attraction, evaluated
//     through the Barnes–Hut tree
//   - [Drag]: friction proportional to the implicit velocity
//   - [Spring]: Hooke's-law pull along each spring with axial damping
package forces
