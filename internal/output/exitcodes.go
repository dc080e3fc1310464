package output

import (
	"errors"

	"github.com/gorewood/timecamp-mcp/internal/timecamp"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// Process exit codes.
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
	ExitConflict    = 3
)

// ExitError is an error that carries an exit code for the CLI.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an error for bad input (exit code 1).
func NewUserError(message string) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message}
}

// NewSystemErrorWithCause creates an upstream or I/O failure (exit code 2).
func NewSystemErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message, Cause: cause}
}

// NewConflictError creates an error for a state conflict (exit code 3).
func NewConflictError(message string) *ExitError {
	return &ExitError{Code: ExitConflict, Message: message}
}

// Classify converts a service error into an ExitError with a stable message.
// Upstream failures keep only their classified message. Nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	var running *tracker.TimerRunningError
	if errors.As(err, &running) {
		return &ExitError{Code: ExitConflict, Message: running.Error(), Cause: err}
	}
	var valErr *tracker.ValidationError
	if errors.As(err, &valErr) {
		return &ExitError{Code: ExitUserError, Message: valErr.Error(), Cause: err}
	}
	if errors.Is(err, tracker.ErrNoTimerRunning) {
		return &ExitError{Code: ExitUserError, Message: "No timer is currently running", Cause: err}
	}
	var apiErr *timecamp.Error
	if errors.As(err, &apiErr) {
		return NewSystemErrorWithCause(apiErr.Error(), err)
	}
	return NewSystemErrorWithCause(err.Error(), err)
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil, ExitUserError for non-ExitError errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
