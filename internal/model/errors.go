package model

import (
	"errors"
	"fmt"
)

// ErrBacklogNotFound is returned when the backlog file does not exist.
var ErrBacklogNotFound = errors.New("backlog file not found")

// ConfigError rejects a run before any state is touched.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ClipboardError means the prompt never reached the clipboard.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("write clipboard: %v", e.Err)
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// DeliveryError means simulated input failed and the target surface is in an unknown state.
type DeliveryError struct {
	Step string
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("simulate input: %v", e.Err)
	}
	return fmt.Sprintf("simulate input (%s): %v", e.Step, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// CommitError is a storage failure while recording a delivery. The prompt
// stays pending and is picked up again by the next load.
type CommitError struct {
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit delivery to %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var commitErr *CommitError
	return !errors.As(err, &commitErr)
}
