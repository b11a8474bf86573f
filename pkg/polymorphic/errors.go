package polymorphic

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("polymorphic: invalid configuration")
	// ErrUnknownType is matched by every *UnknownTypeError.
	ErrUnknownType = errors.New("polymorphic: unknown instance type")
)

// ConfigurationError reports a dispatcher that cannot be built. The message
// is stable and names the dispatcher and the offending attribute.
type ConfigurationError struct {
	Name    string
	Message string
}

func newConfigurationError(name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Name: name, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownTypeError is returned when an instance matches no registry entry.
// It signals a registry that does not cover the stored objects, not bad
// client input.
type UnknownTypeError struct {
	Dispatcher string
	Type       string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: no handler registered for instance of type %s", e.Dispatcher, e.Type)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}
