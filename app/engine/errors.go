package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation addressing an unknown alert id.
var ErrNotFound = errors.New("alert not found")

// AdapterError wraps a single source's fetch failure. It is isolated to that
// source for that pass and never aborts the rest of the evaluation.
type AdapterError struct {
	Source string
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NotifyError wraps a delivery failure for one finding on one channel. The
// dedup insert stands regardless.
type NotifyError struct {
	Channel     string
	Fingerprint string
	Err         error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("channel %s, finding %s: %v", e.Channel, e.Fingerprint, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed alert definition reaching the engine.
// The run is aborted for that alert only.
type ValidationError struct {
	AlertID string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid alert %s: %v", e.AlertID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
