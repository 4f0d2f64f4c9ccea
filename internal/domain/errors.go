package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField marks a reception row with an absent or unparseable required field.
	ErrMissingField = errors.New("missing field")

	// ErrEmptyGroup marks a message group with no receptions.
	ErrEmptyGroup = errors.New("empty group")

	// ErrZeroWeight marks a group whose raw weights cannot be normalized.
	ErrZeroWeight = errors.New("division by zero: group weights sum to zero")

	// ErrInvalidInput marks a reference point or estimate set that fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable marks an input dataset that could not be loaded.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// FieldError describes a reception row excluded from computation.
type FieldError struct {
	Row       int
	MessageID string
	Field     string
	Value     string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d (message %q): %s %q: %v", e.Row, e.MessageID, e.Field, e.Value, ErrMissingField)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// GroupError describes a message whose position could not be estimated.
type GroupError struct {
	MessageID string
	Err       error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("message %q: %v", e.MessageID, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }
