package dynamo

import "fmt"

// Spring is a soft connection pulling its endpoints toward RestLength.
// Only RestLength is expected to change after creation.
type Spring struct {
	Source     ID
	Target     ID
	RestLength float64
	Stiffness  float64
	Damping    float64
}

// Validate checks the spring parameters and that both endpoints are live
// members of set.
func (s Spring) Validate(set *Set) error {
	if err := checkEndpoints("spring", set, s.Source, s.Target); err != nil {
		return err
	}
	switch {
	case s.RestLength < 0:
		return Invalid("spring", "rest_length", s.RestLength)
	case s.Stiffness < 0:
		return Invalid("spring", "stiffness", s.Stiffness)
	case s.Damping < 0 || s.Damping > 1:
		return Invalid("spring", "damping", s.Damping)
	}
	return nil
}

// Link is a rigid distance between two particles, enforced as a
// positional constraint rather than a force.
type Link struct {
	Source ID
	Target ID
	Length float64
}

func (l Link) Validate(set *Set) error {
	if err := checkEndpoints("link", set, l.Source, l.Target); err != nil {
		return err
	}
	if l.Length < 0 {
		return Invalid("link", "length", l.Length)
	}
	return nil
}

func checkEndpoints(component string, set *Set, a, b ID) error {
	for _, id := range [...]ID{a, b} {
		if !set.Contains(id) {
			return &ConfigError{Component: component, Field: "endpoint", Value: id, Wrapped: ErrUnknownParticle}
		}
	}
	if a == b {
		return &ConfigError{Component: component, Field: "endpoint", Value: a,
			Wrapped: fmt.Errorf("%w: self-connection", ErrInvalidParameter)}
	}
	return nil
}

// Touches reports whether id is one of the spring's endpoints.
func (s Spring) Touches(id ID) bool { return s.Source == id || s.Target == id }

// Touches reports whether id is one of the link's endpoints.
func (l Link) Touches(id ID) bool { return l.Source == id || l.Target == id }

// Configurable exposes named float parameters for runtime reconfiguration.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
