package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchIncomplete indicates the remote source did not return the expected metric set for the window.
	ErrFetchIncomplete = errors.New("fetch incomplete")
	// ErrReclassificationTimeout is reported when a remote reclassification did not finish in time.
	ErrReclassificationTimeout = errors.New("reclassification timed out")
	// ErrKeyMismatch is returned when a record is reconciled under a key it does not carry.
	ErrKeyMismatch = errors.New("record key does not match reconcile key")
)

// FormatError reports a remote value that cannot be parsed into its canonical type.
type FormatError struct {
	Field string
	Value any
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("format error: field %q value %v", e.Field, e.Value)
	}
	return fmt.Sprintf("format error: field %q value %v: %v", e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// StoreCommitFailure wraps an error raised while committing a reconcile batch. The batch has been rolled back.
type StoreCommitFailure struct {
	Err error
}

func (e *StoreCommitFailure) Error() string {
	return "store commit failed: " + e.Err.Error()
}

func (e *StoreCommitFailure) Unwrap() error { return e.Err }
