package generation

import (
	"errors"
	"fmt"
)

// ErrDeadlineExceeded is returned when the task's time budget ran out before
// a costly step.
var ErrDeadlineExceeded = errors.New("max duration exceeded")

// PipelineError is returned when the multi-agent fallback fails. Message is
// the pipeline's own error text.
type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ProfileError represents a failed personality lookup
type ProfileError struct {
	ID    string
	Cause error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("personality %s unavailable: %v", e.ID, e.Cause)
}

func (e *ProfileError) Unwrap() error {
	return e.Cause
}
