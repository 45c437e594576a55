package metrics

import (
	"math"

	"github.com/san-kum/forcesim/internal/sim"
)

// KineticEnergy reports the kinetic energy after the last observed tick.
type KineticEnergy struct {
	name    string
	last    float64
	peak    float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(s *sim.Simulation) {
	k.last = s.KineticEnergy()
	k.peak = math.Max(k.peak, k.last)
	k.samples++
}

func (k *KineticEnergy) Value() float64 { return k.last }

// Peak returns the largest energy seen since Reset.
func (k *KineticEnergy) Peak() float64 { return k.peak }

func (k *KineticEnergy) Reset() {
	k.last = 0
	k.peak = 0
	k.samples = 0
}

// EnergyDecay is the ratio of final to peak kinetic energy. Values near
// zero mean the layout came to rest.
type EnergyDecay struct {
	name string
	ke   KineticEnergy
}

func NewEnergyDecay() *EnergyDecay {
	return &EnergyDecay{name: "energy_decay"}
}

func (e *EnergyDecay) Name() string { return e.name }

func (e *EnergyDecay) Observe(s *sim.Simulation) { e.ke.Observe(s) }

func (e *EnergyDecay) Value() float64 {
	if e.ke.peak == 0 {
		return 0
	}
	return e.ke.last / e.ke.peak
}

func (e *EnergyDecay) Reset() { e.ke.Reset() }
