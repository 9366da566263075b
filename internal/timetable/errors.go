package timetable

import (
	"errors"
	"fmt"
)

// ErrNoStream is returned by operations that need a selected stream.
var ErrNoStream = errors.New("please select a stream first")

// ValidationError blocks a mutation because of bad user input.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func noStreamError() error {
	return &ValidationError{Reason: ErrNoStream.Error(), Err: ErrNoStream}
}

// ConflictError reports an occupied slot. The caller resolves it by asking the
// user and retrying with confirmation.
type ConflictError struct {
	Key      SlotKey
	Existing ClassEntry
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a class already exists at %s", e.Key)
}

// Persistence operations.
const (
	OpSave = "save"
	OpLoad = "load"
)

// PersistenceError reports a snapshot that could not be written or read.
// Reset is set when a corrupt snapshot was discarded and the in-memory state
// emptied; otherwise the state is unchanged.
type PersistenceError struct {
	Op       string
	Snapshot string
	Reset    bool
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot %q: %v", e.Op, e.Snapshot, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NetworkError reports a failed or timed-out fetch. Displayed data is kept.
type NetworkError struct {
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return "request timed out, please try again"
	}
	return fmt.Sprintf("error loading timetable data: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
