package domain

import "errors"

// Common errors used throughout the application.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrCyclicTemplate     = errors.New("cyclic template structure")
	ErrRemoteUnavailable  = errors.New("remote QR API unavailable")
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound      = "RESOURCE_NOT_FOUND"
	ErrCodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeValidationError       = "VALIDATION_ERROR"
	ErrCodePreconditionFailed    = "PRECONDITION_FAILED"
	ErrCodeCyclicTemplate        = "CYCLIC_TEMPLATE"
	ErrCodeRemoteUnavailable     = "REMOTE_UNAVAILABLE"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// StandardError represents a standardized error response from the API.
type StandardError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StandardErrorResponse wraps a StandardError for JSON responses.
type StandardErrorResponse struct {
	Error StandardError `json:"error"`
}
