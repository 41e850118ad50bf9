package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during ensemble aggregation.
var (
	// ErrNoPredictions indicates that an EnsembleInput contained no model
	// predictions at all. This is the component's single invalid-input
	// condition and propagates directly to the caller.
	ErrNoPredictions = errors.New("at least one model prediction must be provided")

	// ErrKeyNotFound indicates that a required value is missing from State.
	ErrKeyNotFound = errors.New("key not found")
)

// StateError represents an error that occurred while reading or writing
// pipeline State. It provides context about which key and operation failed.
type StateError struct {
	// Key is the state key involved in the failed operation.
	Key string

	// Operation describes what was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{Key: key, Operation: operation, Err: err}
}
