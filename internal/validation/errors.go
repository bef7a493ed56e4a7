package validation

import (
	"fmt"

	"github.com/bcnelson/qr-template-studio/internal/domain"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports whether target is domain.ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e[0].Error(), len(e)-1)
}

// Is reports whether target is domain.ErrInvalidInput.
func (e ValidationErrors) Is(target error) bool {
	return target == domain.ErrInvalidInput
}

// Add adds a validation error to the collection.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, NewValidationError(field, value, message))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Err returns the collection as an error, or nil when it is empty.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
