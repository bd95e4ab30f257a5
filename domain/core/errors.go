package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors, scoped to a single session file
	ErrInputError      = errors.New("input error")
	ErrMissingColumns  = fmt.Errorf("%w: missing required columns", ErrInputError)
	ErrEmptyInput      = fmt.Errorf("%w: empty input", ErrInputError)
	ErrNoValidRows     = fmt.Errorf("%w: no valid rows after filtering", ErrInputError)
	ErrUnreadableInput = fmt.Errorf("%w: unreadable input", ErrInputError)

	// Invariant violations
	ErrInvalidSequence = errors.New("invalid choice sequence")
	ErrInvalidSide     = errors.New("invalid side")

	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewMissingColumnsError reports the columns a file lacks
func NewMissingColumnsError(path string, missing []string) error {
	return fmt.Errorf("%w in %s: %v", ErrMissingColumns, path, missing)
}

// NewSequenceError reports a broken sequence invariant at a position
func NewSequenceError(position int, reason string) error {
	return fmt.Errorf("%w at position %d: %s", ErrInvalidSequence, position, reason)
}

// NewValidationError reports an invalid field value
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsInputError reports whether err isolates a single session as failed
func IsInputError(err error) bool {
	return errors.Is(err, ErrInputError)
}
