package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/forcesim/internal/graph"
)

var ErrUnplaced = errors.New("analysis: node has no coordinates")

// EdgeStats summarizes link lengths. Strain is the mean of |d - L| / L
// over links with a positive rest length L.
type EdgeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Strain float64 `json:"strain"`
}

// CV is the coefficient of variation of link lengths.
func (e EdgeStats) CV() float64 {
	if e.Mean == 0 {
		return 0
	}
	return e.StdDev / e.Mean
}

type Report struct {
	Nodes         int       `json:"nodes"`
	Edges         EdgeStats `json:"edges"`
	MinSeparation float64   `json:"min_separation"`
	Crossings     int       `json:"crossings"`
}

// Objectives lists the names accepted by Report.Objective.
func Objectives() []string {
	names := make([]string, 0, len(objectives))
	for name := range objectives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var objectives = map[string]func(r Report) float64{
	"crossings": func(r Report) float64 { return float64(r.Crossings) },
	"edge_cv":   func(r Report) float64 { return r.Edges.CV() },
	"strain":    func(r Report) float64 { return r.Edges.Strain },
	// closer nodes score worse
	"separation": func(r Report) float64 { return -r.MinSeparation },
	"combined": func(r Report) float64 {
		return float64(r.Crossings) + r.Edges.CV() + r.Edges.Strain
	},
}

// Objective returns a value where lower means a better layout.
func (r Report) Objective(name string) (float64, error) {
	fn, ok := objectives[name]
	if !ok {
		return 0, fmt.Errorf("unknown objective: %s", name)
	}
	return fn(r), nil
}

// Analyze computes every quality measure. restLength is used for links
// that do not set their own length.
func Analyze(g *graph.Graph, restLength float64) (Report, error) {
	pos, err := positions(g)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Nodes:         len(g.Nodes),
		Edges:         edgeLengths(g, pos, restLength),
		MinSeparation: minSeparation(g, pos),
		Crossings:     crossings(g, pos),
	}, nil
}

func EdgeLengths(g *graph.Graph, restLength float64) (EdgeStats, error) {
	pos, err := positions(g)
	if err != nil {
		return EdgeStats{}, err
	}
	return edgeLengths(g, pos, restLength), nil
}

// MinSeparation returns +Inf for graphs with fewer than two nodes.
func MinSeparation(g *graph.Graph) (float64, error) {
	pos, err := positions(g)
	if err != nil {
		return 0, err
	}
	return minSeparation(g, pos), nil
}

// Crossings counts pairs of links that properly intersect. Links that
// share an endpoint never count.
func Crossings(g *graph.Graph) (int, error) {
	pos, err := positions(g)
	if err != nil {
		return 0, err
	}
	return crossings(g, pos), nil
}

func positions(g *graph.Graph) (map[string]r2.Vec, error) {
	pos := make(map[string]r2.Vec, len(g.Nodes))
	for _, n := range g.Nodes {
		if !n.Placed() {
			return nil, fmt.Errorf("%w: %s", ErrUnplaced, n.ID)
		}
		pos[n.ID] = r2.Vec{X: *n.X, Y: *n.Y}
	}
	return pos, nil
}

func edgeLengths(g *graph.Graph, pos map[string]r2.Vec, restLength float64) EdgeStats {
	if len(g.Links) == 0 {
		return EdgeStats{}
	}

	lengths := make([]float64, len(g.Links))
	var strain float64
	var strained int
	for i, l := range g.Links {
		d := r2.Norm(r2.Sub(pos[l.Target], pos[l.Source]))
		lengths[i] = d

		rest := restLength
		if l.Length != nil {
			rest = *l.Length
		}
		if rest > 0 {
			strain += math.Abs(d-rest) / rest
			strained++
		}
	}

	es := EdgeStats{Count: len(lengths)}
	es.Mean, es.StdDev = stat.PopMeanStdDev(lengths, nil)
	es.Min, es.Max = lengths[0], lengths[0]
	for _, d := range lengths[1:] {
		es.Min = math.Min(es.Min, d)
		es.Max = math.Max(es.Max, d)
	}
	if strained > 0 {
		es.Strain = strain / float64(strained)
	}
	return es
}

func minSeparation(g *graph.Graph, pos map[string]r2.Vec) float64 {
	best := math.Inf(1)
	for i := range g.Nodes {
		a := pos[g.Nodes[i].ID]
		for j := i + 1; j < len(g.Nodes); j++ {
			best = math.Min(best, r2.Norm(r2.Sub(pos[g.Nodes[j].ID], a)))
		}
	}
	return best
}

func crossings(g *graph.Graph, pos map[string]r2.Vec) int {
	count := 0
	for i, a := range g.Links {
		for _, b := range g.Links[i+1:] {
			if a.Source == b.Source || a.Source == b.Target || a.Target == b.Source || a.Target == b.Target {
				continue
			}
			if intersects(pos[a.Source], pos[a.Target], pos[b.Source], pos[b.Target]) {
				count++
			}
		}
	}
	return count
}

// intersects reports a proper crossing of segments pq and rs. Touching
// and collinear overlaps are not crossings.
func intersects(p, q, r, s r2.Vec) bool {
	d1 := orient(r, s, p)
	d2 := orient(r, s, q)
	d3 := orient(p, q, r)
	d4 := orient(p, q, s)
	return d1*d2 < 0 && d3*d4 < 0
}

func orient(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}
