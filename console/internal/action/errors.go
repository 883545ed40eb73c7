package action

import (
	"errors"
	"fmt"
)

var (
	// ErrDeclined is returned when the user does not confirm an action.
	ErrDeclined = errors.New("action cancelled: not confirmed")

	// ErrBusy is returned when a mutation for the same entity is in flight.
	ErrBusy = errors.New("another change to this resource is in progress")
)

// ValidationError is a precondition that failed before anything was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotAppliedError wraps a failed write. The backend rejected or never
// received the change, and no local state was modified.
type NotAppliedError struct {
	Action string
	Target string
	Err    error
}

func (e *NotAppliedError) Error() string {
	return fmt.Sprintf("%s %s failed, change was not applied: %v", e.Action, e.Target, e.Err)
}

func (e *NotAppliedError) Unwrap() error {
	return e.Err
}

// ReconcileError reports that a write succeeded but refreshing the view
// afterwards failed. The change did apply.
type ReconcileError struct {
	Action string
	Err    error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("%s applied, but refreshing the view failed: %v", e.Action, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}
