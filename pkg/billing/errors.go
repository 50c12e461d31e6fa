package billing

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced fee or enrollment record is
// absent, so callers can distinguish "nothing to do" from a store fault.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects bad input before any persistence call is made
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a store failure verbatim. The core never retries
// or swallows these; the caller decides.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
