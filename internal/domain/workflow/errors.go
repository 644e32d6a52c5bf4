package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the attempted action is not legal
	// from the observed state. Always a client-input error, never retried.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not a valid workflow state
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidAction is returned when an action is not a known workflow action
	ErrInvalidAction = errors.New("invalid action")

	// ErrConcurrentModification is returned when the record changed between
	// the caller's read and the attempted transition. Callers must re-read
	// the current state and retry.
	ErrConcurrentModification = errors.New("record changed since it was loaded; refresh and retry")

	// ErrNotFound is returned when no record exists for the given id
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned on transient infrastructure failures.
	// It is propagated to the caller, never swallowed.
	ErrStoreUnavailable = errors.New("transition store unavailable")
)
