package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrMalformedReference marks identifiers and payloads rejected before any lookup.
	// It also matches ErrValidation.
	ErrMalformedReference = fmt.Errorf("malformed reference: %w", ErrValidation)

	// ErrInvariantViolation marks writes that would corrupt a layout or a version lifecycle
	// (duplicate block ids, writes to archived versions, deleting live versions).
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrPersistence marks failures of the storage collaborator itself.
	ErrPersistence = errors.New("persistence failure")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// InvariantError indicates an operation refused because it would break a layout
	// or version invariant
	InvariantError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *InvariantError) Error() string  { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *InvariantError) StatusCode() int  { return http.StatusUnprocessableEntity }

// Is implementations so typed errors match their sentinels
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *InvariantError) Is(target error) bool  { return target == ErrInvariantViolation }

// NewInvariantError formats an InvariantError
func NewInvariantError(format string, args ...any) error {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// NewValidationError formats a ValidationError
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError represents a resource conflict with details about the existing resource
// Implements HTTPError interface for extensible error handling
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (section, version, backup)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
