// Package analysis measures the quality of a settled layout.
//
// All functions take a [graph.Graph] whose nodes carry coordinates:
//
//   - [EdgeLengths]: mean, spread and strain of link lengths
//   - [MinSeparation]: closest distance between any two nodes
//   - [Crossings]: number of pairs of links that cross
//   - [Analyze]: all of the above as a [Report]
//
// [Plot] and [Scatter] draw series and layouts as terminal text.
//
//	report, err := analysis.Analyze(g, 30)
//	if err == nil && report.Crossings == 0 {
//	    // planar drawing
//	}
package analysis
