package service

import (
	"errors"
	"fmt"
)

// ErrSubmissionNotFound indicates the referenced submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ValidationError reports a missing or malformed required field. It is always
// recoverable: the caller gets the message verbatim and no state is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("missing required key %s", e.Field)
}

// NewMissingKeyError builds the validation error for an absent required key.
func NewMissingKeyError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// NewInvalidFieldError builds the validation error for a malformed field.
func NewInvalidFieldError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// StoreError wraps a durable-store failure. These must surface to the caller;
// swallowing one would corrupt routing state silently.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
