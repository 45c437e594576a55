package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/integrators"
	"github.com/san-kum/forcesim/internal/sim"
)

const (
	DefaultChargeConstant  = -30.0
	DefaultMinDistance     = 1.0
	DefaultDragCoefficient = 0.4
	DefaultStiffness       = 0.1
	DefaultSpringDamping   = 0.2
	DefaultRestLength      = 30.0
	DefaultCollisionRadius = 5.0
)

type Config struct {
	Integrator  string           `yaml:"integrator" toml:"integrator"`
	Forces      []string         `yaml:"forces" toml:"forces"`
	Constraints []string         `yaml:"constraints" toml:"constraints"`
	Simulation  SimulationConfig `yaml:"simulation" toml:"simulation"`
	Charge      ChargeConfig     `yaml:"charge" toml:"charge"`
	Drag        DragConfig       `yaml:"drag" toml:"drag"`
	Spring      SpringConfig     `yaml:"spring" toml:"spring"`
	Collision   CollisionConfig  `yaml:"collision" toml:"collision"`
	Center      CenterConfig     `yaml:"center" toml:"center"`
	Link        LinkConfig       `yaml:"link" toml:"link"`
	Placement   PlacementConfig  `yaml:"placement" toml:"placement"`
}

type SimulationConfig struct {
	InitialAlpha float64 `yaml:"initial_alpha" toml:"initial_alpha"`
	AlphaDecay   float64 `yaml:"alpha_decay" toml:"alpha_decay"`
	AlphaEpsilon float64 `yaml:"alpha_epsilon" toml:"alpha_epsilon"`
	MinTicks     int     `yaml:"min_ticks" toml:"min_ticks"`
	MaxTicks     int     `yaml:"max_ticks" toml:"max_ticks"`
	Theta        float64 `yaml:"theta" toml:"theta"`
}

type ChargeConfig struct {
	Constant    float64 `yaml:"constant" toml:"constant"`
	MinDistance float64 `yaml:"min_distance" toml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance" toml:"max_distance"`
}

type DragConfig struct {
	Coefficient float64 `yaml:"coefficient" toml:"coefficient"`
}

// SpringConfig holds the parameters given to springs whose input edge
// does not set its own.
type SpringConfig struct {
	Stiffness  float64 `yaml:"stiffness" toml:"stiffness"`
	Damping    float64 `yaml:"damping" toml:"damping"`
	RestLength float64 `yaml:"rest_length" toml:"rest_length"`
	Strength   float64 `yaml:"strength" toml:"strength"`
}

type CollisionConfig struct {
	Radius     float64 `yaml:"radius" toml:"radius"`
	Tolerance  float64 `yaml:"tolerance" toml:"tolerance"`
	// Iterations caps collision passes; 0 runs until no pair overlaps.
	Iterations int     `yaml:"iterations" toml:"iterations"`
}

type CenterConfig struct {
	Alpha float64 `yaml:"alpha" toml:"alpha"`
	X     float64 `yaml:"x" toml:"x"`
	Y     float64 `yaml:"y" toml:"y"`
}

type LinkConfig struct {
	Iterations int `yaml:"iterations" toml:"iterations"`
}

// PlacementConfig controls where nodes without coordinates start.
type PlacementConfig struct {
	Strategy string  `yaml:"strategy" toml:"strategy"`
	Seed     uint64  `yaml:"seed" toml:"seed"`
	Scale    float64 `yaml:"scale" toml:"scale"`
}

func DefaultConfig() *Config {
	sc := sim.DefaultConfig()
	return &Config{
		Integrator:  "verlet",
		Forces:      []string{"charge", "drag", "spring"},
		Constraints: []string{"collision"},
		Simulation: SimulationConfig{
			InitialAlpha: sc.InitialAlpha,
			AlphaDecay:   sc.AlphaDecay,
			AlphaEpsilon: sc.AlphaEpsilon,
			MinTicks:     sc.MinTicks,
			MaxTicks:     sc.MaxTicks,
			Theta:        sc.Theta,
		},
		Charge: ChargeConfig{Constant: DefaultChargeConstant, MinDistance: DefaultMinDistance},
		Drag:   DragConfig{Coefficient: DefaultDragCoefficient},
		Spring: SpringConfig{
			Stiffness:  DefaultStiffness,
			Damping:    DefaultSpringDamping,
			RestLength: DefaultRestLength,
			Strength:   1,
		},
		Collision: CollisionConfig{Radius: DefaultCollisionRadius, Tolerance: 0.01},
		Center:    CenterConfig{Alpha: 0.05},
		Link:      LinkConfig{Iterations: 1},
		Placement: PlacementConfig{Strategy: "phyllotaxis", Seed: 1, Scale: 10},
	}
}

// Load reads a YAML file, or TOML when the extension is .toml. Missing
// keys keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// SimConfig returns the cooling schedule for sim.New.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		InitialAlpha: c.Simulation.InitialAlpha,
		AlphaDecay:   c.Simulation.AlphaDecay,
		AlphaEpsilon: c.Simulation.AlphaEpsilon,
		MinTicks:     c.Simulation.MinTicks,
		MaxTicks:     c.Simulation.MaxTicks,
		Theta:        c.Simulation.Theta,
	}
}

// Validate checks every section without building anything.
func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return err
	}
	switch {
	case !(c.Charge.MinDistance > 0):
		return dynamo.Invalid("charge", "min_distance", c.Charge.MinDistance)
	case c.Charge.MaxDistance < 0:
		return dynamo.Invalid("charge", "max_distance", c.Charge.MaxDistance)
	case c.Drag.Coefficient < 0 || c.Drag.Coefficient > 1:
		return dynamo.Invalid("drag", "coefficient", c.Drag.Coefficient)
	case c.Spring.Stiffness < 0:
		return dynamo.Invalid("spring", "stiffness", c.Spring.Stiffness)
	case c.Spring.Damping < 0 || c.Spring.Damping > 1:
		return dynamo.Invalid("spring", "damping", c.Spring.Damping)
	case c.Spring.RestLength < 0:
		return dynamo.Invalid("spring", "rest_length", c.Spring.RestLength)
	case c.Collision.Radius < 0:
		return dynamo.Invalid("collision", "radius", c.Collision.Radius)
	case c.Collision.Iterations < 0:
		return dynamo.Invalid("collision", "iterations", c.Collision.Iterations)
	case c.Center.Alpha < 0 || c.Center.Alpha > 1:
		return dynamo.Invalid("center", "alpha", c.Center.Alpha)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Forces = append([]string(nil), c.Forces...)
	out.Constraints = append([]string(nil), c.Constraints...)
	return &out
}

// Set assigns a parameter by dotted key, e.g. "charge.constant". It is the
// counterpart of Params and is used by CLI overrides and the tuner.
func (c *Config) Set(key string, value float64) error {
	p, ok := c.fields()[key]
	if !ok {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, key)
	}
	*p = value
	return nil
}

// Params returns every float parameter by dotted key.
func (c *Config) Params() map[string]float64 {
	out := make(map[string]float64)
	for k, p := range c.fields() {
		out[k] = *p
	}
	return out
}

func (c *Config) fields() map[string]*float64 {
	return map[string]*float64{
		"simulation.initial_alpha": &c.Simulation.InitialAlpha,
		"simulation.alpha_decay":   &c.Simulation.AlphaDecay,
		"simulation.alpha_epsilon": &c.Simulation.AlphaEpsilon,
		"simulation.theta":         &c.Simulation.Theta,
		"charge.constant":          &c.Charge.Constant,
		"charge.min_distance":      &c.Charge.MinDistance,
		"charge.max_distance":      &c.Charge.MaxDistance,
		"drag.coefficient":         &c.Drag.Coefficient,
		"spring.stiffness":         &c.Spring.Stiffness,
		"spring.damping":           &c.Spring.Damping,
		"spring.rest_length":       &c.Spring.RestLength,
		"spring.strength":          &c.Spring.Strength,
		"collision.radius":         &c.Collision.Radius,
		"collision.tolerance":      &c.Collision.Tolerance,
		"center.alpha":             &c.Center.Alpha,
	}
}
