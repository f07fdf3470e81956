package core

import "fmt"

// ValidationError reports a rejected config or query before any side effect.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AgentNotFoundError is returned by the manager when no live executor exists
// for the requested agent id.
type AgentNotFoundError struct {
	ID string `json:"id"`
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent '%s' not found", e.ID)
}

// ModelCallError is the only error class expected to reach the end user: a
// failed model round-trip, carrying provider and model identity.
type ModelCallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed (%s/%s): %v", e.Provider, e.Model, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ModelCallError) Unwrap() error { return e.Err }
