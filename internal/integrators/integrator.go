package integrators

import (
	"sort"

	"github.com/san-kum/forcesim/internal/dynamo"
	"github.com/san-kum/forcesim/internal/forces"
)

// Integrator advances every non-fixed particle by the displacement
// accumulated in the frame. Fixed particles are never touched.
type Integrator interface {
	Name() string
	Integrate(f *forces.Frame)
}

var registry = map[string]func() Integrator{
	"verlet":     func() Integrator { return NewVerlet() },
	"overdamped": func() Integrator { return NewOverdamped() },
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, &dynamo.ConfigError{Component: "integrator", Field: "name", Value: name, Wrapped: dynamo.ErrInvalidParameter}
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
