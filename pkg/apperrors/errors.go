// Package apperrors defines the error taxonomy shared across the backend.
//
// Validation and conflict errors are surfaced verbatim to callers; storage
// errors are wrapped by the layer that saw them and reported generically at
// the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier resolves to nothing.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed input before any mutation happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validation creates a ValidationError for the given field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a guard failure with the expected vs. actual state.
// No partial mutation has happened when one of these is returned.
type ConflictError struct {
	Resource string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: expected %s, actual %s", e.Resource, e.Expected, e.Actual)
}

// Conflict creates a ConflictError describing a state-guard failure.
func Conflict(resource, expected, actual string) error {
	return &ConflictError{Resource: resource, Expected: expected, Actual: actual}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
