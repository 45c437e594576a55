// Package graph reads and writes node-link graphs and assigns starting
// positions to nodes that have none.
//
// The JSON format is an object with "nodes" and "links" arrays:
//
//	{
//	  "nodes": [{"id": "a"}, {"id": "b", "x": 10, "y": 0, "fixed": true}],
//	  "links": [{"source": "a", "target": "b", "length": 40}]
//	}
//
// Every node needs an "id". Optional node fields are x, y, mass, radius,
// fixed and group. Optional link fields are length, stiffness, damping and
// rigid; a rigid link becomes a hard distance constraint instead of a
// spring.
package graph
