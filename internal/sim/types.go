package sim

import (
	"math"

	"github.com/san-kum/forcesim/internal/dynamo"
)

// Config is the cooling schedule and Barnes–Hut accuracy of a simulation.
type Config struct {
	InitialAlpha float64
	AlphaDecay   float64
	AlphaEpsilon float64
	// MinTicks delays settling even when alpha is already below epsilon.
	MinTicks int
	// MaxTicks caps Run when it is given no explicit limit. 0 means none.
	MaxTicks int
	Theta    float64
}

func DefaultConfig() Config {
	return Config{
		InitialAlpha: 1,
		AlphaDecay:   0.98,
		AlphaEpsilon: 1e-3,
		MaxTicks:     5000,
		Theta:        0.9,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.InitialAlpha >= 0) || math.IsInf(c.InitialAlpha, 0):
		return dynamo.Invalid("simulation", "initial_alpha", c.InitialAlpha)
	case !(c.AlphaDecay > 0 && c.AlphaDecay <= 1):
		return dynamo.Invalid("simulation", "alpha_decay", c.AlphaDecay)
	case !(c.AlphaEpsilon >= 0):
		return dynamo.Invalid("simulation", "alpha_epsilon", c.AlphaEpsilon)
	case c.MinTicks < 0:
		return dynamo.Invalid("simulation", "min_ticks", c.MinTicks)
	case c.MaxTicks < 0:
		return dynamo.Invalid("simulation", "max_ticks", c.MaxTicks)
	case !(c.Theta >= 0) || math.IsInf(c.Theta, 0):
		return dynamo.Invalid("simulation", "theta", c.Theta)
	}
	return nil
}

// Metric accumulates a scalar over the ticks of a run.
type Metric interface {
	Name() string
	Observe(s *Simulation)
	Value() float64
	Reset()
}

// Observer is notified after every tick of Run.
type Observer interface {
	OnTick(s *Simulation)
}

// Result summarises a Run. Alpha and Energy hold one entry per tick,
// taken after the tick.
type Result struct {
	Ticks   int
	Settled bool
	Alpha   []float64
	Energy  []float64
	Metrics map[string]float64
}
