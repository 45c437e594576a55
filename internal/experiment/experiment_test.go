package experiment

import (
	"context"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/constraints"
	"github.com/san-kum/forcesim/internal/graph"
)

func TestNew_BuildsSimulation(t *testing.T) {
	g, err := graph.ReadJSON(strings.NewReader(`{
	  "nodes": [{"id": "a", "x": 0, "y": 0, "fixed": true}, {"id": "b"}, {"id": "c"}],
	  "links": [
	    {"source": "a", "target": "b", "length": 20},
	    {"source": "b", "target": "c", "rigid": true, "length": 15}
	  ]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	e, err := New(config.DefaultConfig(), g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := e.Simulation()

	if s.Len() != 3 {
		t.Errorf("particles = %d, want 3", s.Len())
	}
	if sp := s.Springs(); len(sp) != 1 || sp[0].RestLength != 20 || sp[0].Stiffness != config.DefaultStiffness {
		t.Errorf("springs = %+v", sp)
	}
	if l := s.Links(); len(l) != 1 || l[0].Length != 15 {
		t.Errorf("links = %+v", l)
	}

	names := make([]string, 0)
	for _, f := range s.Forces() {
		names = append(names, f.Name())
	}
	if strings.Join(names, ",") != "charge,drag,spring" {
		t.Errorf("force order = %v", names)
	}
	cs := s.Constraints()
	if len(cs) != 2 {
		t.Fatalf("constraints = %d, want collision plus link", len(cs))
	}
	if _, ok := cs[1].(*constraints.Link); !ok {
		t.Errorf("rigid links should append a link constraint, got %T", cs[1])
	}

	if g.Nodes[1].Placed() {
		t.Error("input graph was modified")
	}
}

func TestRun_SettlesAndKeepsFixedNode(t *testing.T) {
	g, _ := graph.Generate("ring", 12, 1)
	x, y := 5.0, 5.0
	g.Nodes[0].X, g.Nodes[0].Y, g.Nodes[0].Fixed = &x, &y, true

	e, err := New(config.DefaultConfig(), g)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Settled {
		t.Error("ring did not settle")
	}
	for _, name := range []string{"kinetic_energy", "spring_strain", "stability"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}

	pos := e.Positions()
	if pos["n0"] != (r2.Vec{X: 5, Y: 5}) {
		t.Errorf("fixed node moved to %v", pos["n0"])
	}

	snap := e.Snapshot()
	for _, n := range snap.Nodes {
		if !n.Placed() || math.IsNaN(*n.X) {
			t.Fatalf("node %s not placed in snapshot", n.ID)
		}
		if *n.X != pos[n.ID].X {
			t.Errorf("snapshot of %s out of date", n.ID)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	g, _ := graph.Generate("star", 4, 1)

	bad := config.DefaultConfig()
	bad.Forces = []string{"gravity"}
	if _, err := New(bad, g); err == nil {
		t.Error("expected unknown force error")
	}

	bad = config.DefaultConfig()
	bad.Constraints = []string{"wall"}
	if _, err := New(bad, g); err == nil {
		t.Error("expected unknown constraint error")
	}

	bad = config.DefaultConfig()
	bad.Placement.Strategy = "spiral"
	if _, err := New(bad, g); err == nil {
		t.Error("expected unknown placement error")
	}

	neg := -1.0
	g.Nodes[0].Mass = neg
	if _, err := New(config.DefaultConfig(), g); err == nil {
		t.Error("expected mass error")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if got := strings.Join(r.ListForces(), ","); got != "charge,drag,spring" {
		t.Errorf("forces = %s", got)
	}
	if got := strings.Join(r.ListConstraints(), ","); got != "center,collision,link" {
		t.Errorf("constraints = %s", got)
	}
	if len(r.DefaultMetrics()) == 0 {
		t.Error("no default metrics")
	}
}
