package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrVariableNotFound = fmt.Errorf("%w: variable", ErrNotFound)
	ErrBlockNotFound    = fmt.Errorf("%w: block", ErrNotFound)

	// Validation errors
	ErrInvalidDesign    = errors.New("invalid study design")
	ErrInvalidFrame     = errors.New("invalid data frame")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrEmptySample      = errors.New("empty group sample")

	// Strategy errors
	ErrUnknownStrategy = errors.New("unknown test strategy")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDesign) ||
		errors.Is(err, ErrInvalidFrame) ||
		errors.Is(err, ErrInsufficientData)
}
