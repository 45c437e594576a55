package graph

import (
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/exp/rand"
)

var generators = map[string]func(n int, rnd *rand.Rand) *Graph{
	"ring":   ring,
	"grid":   grid,
	"tree":   tree,
	"star":   star,
	"random": random,
}

// Generate builds a synthetic graph of roughly n nodes. Kinds are listed
// by Generators.
func Generate(kind string, n int, seed uint64) (*Graph, error) {
	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("unknown graph kind: %s", kind)
	}
	if n < 1 {
		return nil, fmt.Errorf("graph size must be positive, got %d", n)
	}
	return gen(n, rand.New(rand.NewSource(seed))), nil
}

func Generators() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nodes(n int) []Node {
	out := make([]Node, n)
	for i := range out {
		out[i] = Node{ID: "n" + strconv.Itoa(i)}
	}
	return out
}

func link(a, b int) Link {
	return Link{Source: "n" + strconv.Itoa(a), Target: "n" + strconv.Itoa(b)}
}

func ring(n int, _ *rand.Rand) *Graph {
	g := &Graph{Nodes: nodes(n)}
	for i := 0; i+1 < n; i++ {
		g.Links = append(g.Links, link(i, i+1))
	}
	if n > 2 {
		g.Links = append(g.Links, link(n-1, 0))
	}
	return g
}

func grid(n int, _ *rand.Rand) *Graph {
	side := 1
	for side*side < n {
		side++
	}
	g := &Graph{Nodes: nodes(n)}
	for i := 0; i < n; i++ {
		if (i+1)%side != 0 && i+1 < n {
			g.Links = append(g.Links, link(i, i+1))
		}
		if i+side < n {
			g.Links = append(g.Links, link(i, i+side))
		}
	}
	return g
}

func tree(n int, rnd *rand.Rand) *Graph {
	g := &Graph{Nodes: nodes(n)}
	for i := 1; i < n; i++ {
		g.Links = append(g.Links, link(rnd.Intn(i), i))
	}
	return g
}

func star(n int, _ *rand.Rand) *Graph {
	g := &Graph{Nodes: nodes(n)}
	for i := 1; i < n; i++ {
		g.Links = append(g.Links, link(0, i))
	}
	return g
}

// random is a spanning tree plus about n/2 extra edges.
func random(n int, rnd *rand.Rand) *Graph {
	g := tree(n, rnd)
	if n < 3 {
		return g
	}
	for k := 0; k < n/2; k++ {
		a, b := rnd.Intn(n), rnd.Intn(n)
		if a != b {
			g.Links = append(g.Links, link(a, b))
		}
	}
	return g
}
