package experiment

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/graph"
	"github.com/san-kum/forcesim/internal/integrators"
	"github.com/san-kum/forcesim/internal/sim"
)

// Experiment is a simulation built from a configuration and a graph. It
// remembers which particle stands for which node.
type Experiment struct {
	cfg   *config.Config
	graph *graph.Graph
	sim   *sim.Simulation
	ids   map[string]dynamo.ID
}

// New places unplaced nodes, then builds particles, springs, rigid links,
// forces and constraints in configuration order. g is not modified.
func New(cfg *config.Config, g *graph.Graph, opts ...sim.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	opts = append([]sim.Option{sim.WithIntegrator(integ)}, opts...)
	s, err := sim.New(cfg.SimConfig(), opts...)
	if err != nil {
		return nil, err
	}

	placed := clone(g)
	placer, err := graph.NewPlacer(cfg.Placement.Strategy, cfg.Placement.Scale, cfg.Placement.Seed)
	if err != nil {
		return nil, err
	}
	graph.Place(placed, placer)

	e := &Experiment{cfg: cfg, graph: placed, sim: s, ids: make(map[string]dynamo.ID, len(placed.Nodes))}
	if err := e.addNodes(); err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, name := range cfg.Forces {
		f, err := reg.GetForce(name, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.AddForce(f); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Constraints {
		c, err := reg.GetConstraint(name, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.AddConstraint(c); err != nil {
			return nil, err
		}
	}
	if err := e.addLinks(); err != nil {
		return nil, err
	}

	for _, m := range reg.DefaultMetrics() {
		s.AddMetric(m)
	}
	return e, nil
}

func (e *Experiment) addNodes() error {
	for _, n := range e.graph.Nodes {
		mass := n.Mass
		if mass == 0 {
			mass = 1
		}
		p, err := dynamo.NewParticle(*n.X, *n.Y, mass)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		p.Fixed = n.Fixed
		p.Radius = n.Radius
		p.Key = n.ID

		id, err := e.sim.AddParticle(p)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		e.ids[n.ID] = id
	}
	return nil
}

func (e *Experiment) addLinks() error {
	sc := e.cfg.Spring
	for _, l := range e.graph.Links {
		src, tgt := e.ids[l.Source], e.ids[l.Target]
		length := orDefault(l.Length, sc.RestLength)

		var err error
		if l.Rigid {
			err = e.sim.AddLink(dynamo.Link{Source: src, Target: tgt, Length: length})
		} else {
			err = e.sim.AddSpring(dynamo.Spring{
				Source:     src,
				Target:     tgt,
				RestLength: length,
				Stiffness:  orDefault(l.Stiffness, sc.Stiffness),
				Damping:    orDefault(l.Damping, sc.Damping),
			})
		}
		if err != nil {
			return fmt.Errorf("link %s->%s: %w", l.Source, l.Target, err)
		}
	}
	return nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func clone(g *graph.Graph) *graph.Graph {
	out := &graph.Graph{
		Nodes: append([]graph.Node(nil), g.Nodes...),
		Links: append([]graph.Link(nil), g.Links...),
	}
	for i := range out.Nodes {
		n := &out.Nodes[i]
		if n.X != nil {
			x := *n.X
			n.X = &x
		}
		if n.Y != nil {
			y := *n.Y
			n.Y = &y
		}
	}
	return out
}

func (e *Experiment) Run(ctx context.Context, maxTicks int) (*sim.Result, error) {
	return e.sim.Run(ctx, maxTicks)
}

func (e *Experiment) Simulation() *sim.Simulation { return e.sim }
func (e *Experiment) Config() *config.Config      { return e.cfg }

// ID returns the particle of a node.
func (e *Experiment) ID(node string) (dynamo.ID, bool) {
	id, ok := e.ids[node]
	return id, ok
}

// Positions returns the current position of every node by node id.
func (e *Experiment) Positions() map[string]r2.Vec {
	out := make(map[string]r2.Vec, len(e.ids))
	for node, id := range e.ids {
		if p, ok := e.sim.Particle(id); ok {
			out[node] = p.Pos
		}
	}
	return out
}

// Snapshot returns a copy of the input graph with every node at its
// current position.
func (e *Experiment) Snapshot() *graph.Graph {
	out := clone(e.graph)
	for i := range out.Nodes {
		n := &out.Nodes[i]
		p, ok := e.sim.Particle(e.ids[n.ID])
		if !ok {
			continue
		}
		x, y := p.Pos.X, p.Pos.Y
		n.X, n.Y = &x, &y
	}
	return out
}
