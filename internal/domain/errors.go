package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or disallowed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated marks bad credentials or an invalid, revoked or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound marks a missing resource, including one owned by someone else.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes why a single input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
