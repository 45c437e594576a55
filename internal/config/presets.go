package config

import "sort"

// Presets are named starting points for common graph shapes.
var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"exact": func() *Config {
		c := DefaultConfig()
		c.Simulation.Theta = 0
		return c
	},
	"sparse": func() *Config {
		c := DefaultConfig()
		c.Charge.Constant = -120
		c.Spring.RestLength = 60
		c.Collision.Radius = 8
		return c
	},
	"dense": func() *Config {
		c := DefaultConfig()
		c.Charge.Constant = -10
		c.Charge.MaxDistance = 200
		c.Spring.RestLength = 15
		c.Spring.Stiffness = 0.3
		c.Collision.Radius = 3
		return c
	},
	"tree": func() *Config {
		c := DefaultConfig()
		c.Charge.Constant = -60
		c.Spring.Stiffness = 0.5
		c.Spring.Damping = 0.3
		c.Spring.RestLength = 25
		c.Center.Alpha = 0.02
		return c
	},
	"rigid": func() *Config {
		c := DefaultConfig()
		c.Forces = []string{"charge", "drag"}
		c.Constraints = []string{"link", "collision"}
		c.Link.Iterations = 4
		return c
	},
	"quick": func() *Config {
		c := DefaultConfig()
		c.Integrator = "overdamped"
		c.Simulation.AlphaDecay = 0.95
		c.Simulation.Theta = 1.2
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
