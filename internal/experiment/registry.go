package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/constraints"
	"github.com/san-kum/forcesim/internal/forces"
	"github.com/san-kum/forcesim/internal/metrics"
	"github.com/san-kum/forcesim/internal/sim"
)

// Registry maps the force and constraint names used in configuration
// files to constructors.
type Registry struct {
	forces      map[string]func(cfg *config.Config) forces.Force
	constraints map[string]func(cfg *config.Config) constraints.Constraint
}

func NewRegistry() *Registry {
	r := &Registry{
		forces:      make(map[string]func(*config.Config) forces.Force),
		constraints: make(map[string]func(*config.Config) constraints.Constraint),
	}

	r.forces["charge"] = func(cfg *config.Config) forces.Force {
		return &forces.Charge{
			Constant:    cfg.Charge.Constant,
			MinDistance: cfg.Charge.MinDistance,
			MaxDistance: cfg.Charge.MaxDistance,
		}
	}
	r.forces["drag"] = func(cfg *config.Config) forces.Force {
		return forces.NewDrag(cfg.Drag.Coefficient)
	}
	r.forces["spring"] = func(cfg *config.Config) forces.Force {
		return &forces.Spring{Strength: cfg.Spring.Strength}
	}

	r.constraints["collision"] = func(cfg *config.Config) constraints.Constraint {
		c := constraints.NewCollision(cfg.Collision.Radius)
		if cfg.Collision.Tolerance > 0 {
			c.Tolerance = cfg.Collision.Tolerance
		}
		if cfg.Collision.Iterations > 0 {
			c.Iterations = cfg.Collision.Iterations
		}
		return c
	}
	r.constraints["center"] = func(cfg *config.Config) constraints.Constraint {
		return constraints.PositionCenter(cfg.Center.Alpha, cfg.Center.X, cfg.Center.Y)
	}
	r.constraints["link"] = func(cfg *config.Config) constraints.Constraint {
		c := constraints.NewLink(nil)
		c.Iterations = max(cfg.Link.Iterations, 1)
		return c
	}

	return r
}

func (r *Registry) GetForce(name string, cfg *config.Config) (forces.Force, error) {
	fn, ok := r.forces[name]
	if !ok {
		return nil, fmt.Errorf("unknown force: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) GetConstraint(name string, cfg *config.Config) (constraints.Constraint, error) {
	fn, ok := r.constraints[name]
	if !ok {
		return nil, fmt.Errorf("unknown constraint: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListForces() []string {
	return sortedKeys(r.forces)
}

func (r *Registry) ListConstraints() []string {
	return sortedKeys(r.constraints)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh set of the standard layout metrics.
func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewKineticEnergy(),
		metrics.NewEnergyDecay(),
		metrics.NewMaxDisplacement(),
		metrics.NewSpringStrain(),
		metrics.NewStability(),
	}
}
