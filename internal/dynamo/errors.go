package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for layout setup. All of them are configuration errors:
// a running simulation never produces them mid-tick.
var (
	// ErrNonPositiveMass indicates a particle constructed with mass <= 0.
	ErrNonPositiveMass = errors.New("dynamo: particle mass must be positive")

	// ErrUnknownParticle indicates a reference to a particle that is not
	// (or is no longer) part of the set.
	ErrUnknownParticle = errors.New("dynamo: unknown particle")

	// ErrInvalidParameter indicates a parameter value outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownSpring indicates a reference to a spring that does not exist.
	ErrUnknownSpring = errors.New("dynamo: unknown spring")

	// ErrDuplicateKey indicates two particles registered under the same key.
	ErrDuplicateKey = errors.New("dynamo: duplicate particle key")

	// ErrUnknownParam indicates a parameter name a component does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// ConfigError wraps a setup error with the component and field at fault.
type ConfigError struct {
	Component string
	Field     string
	Value     any
	Wrapped   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Component, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s=%v: %v", e.Component, e.Field, e.Value, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// Invalid builds a ConfigError wrapping ErrInvalidParameter.
func Invalid(component, field string, value any) error {
	return &ConfigError{Component: component, Field: field, Value: value, Wrapped: ErrInvalidParameter}
}
