package core

import (
	"errors"
	"fmt"
)

// ErrNoPagesFound is the sentinel a tool function returns (or wraps) to
// signal "no matching pages" explicitly. Tool invocation converts it into
// the ResponseNotFound envelope instead of propagating it as a failure.
var ErrNoPagesFound = errors.New("no matching documents found")

// ConfigurationError indicates a programming or setup mistake (duplicate
// registration, invalid pagination config, unsupported tool signature).
// These fail fast at setup time and are never fed back to the model.
type ConfigurationError struct {
	Component string `json:"component"` // Subsystem that rejected the configuration
	Message   string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: fmt.Sprintf(format, args...)}
}

// ValidationError represents malformed input: an unparseable URI, a missing
// required tool argument or an out-of-range value. Inside the agent loop
// these are recoverable and surface back to the model as observations.
type ValidationError struct {
	Field   string `json:"field"`           // Field that failed validation
	Value   any    `json:"value,omitempty"` // Value that was provided
	Message string `json:"message"`         // Human-readable error message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}
