package tools

import (
	"fmt"
	"strings"
)

// ExecutionError is returned when a tool could not be started, timed out,
// or exited with a non-zero status.
type ExecutionError struct {
	Tool     ID
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("tool %s failed (exit %d): %v", e.Tool, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("tool %s failed (exit %d): %v: %s", e.Tool, e.ExitCode, e.Err, stderr)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// MalformedOutputError is returned when a tool's stdout does not decode into
// the expected structure. FullText carries any side-channel capture so callers
// can log it for diagnosis.
type MalformedOutputError struct {
	Tool     ID
	Raw      string
	FullText string
	Err      error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("tool %s returned malformed output: %v", e.Tool, e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}
