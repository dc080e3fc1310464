package tracker

import (
	"errors"
	"fmt"
)

// ErrNoTimerRunning is returned by StopTimer when nothing is running.
var ErrNoTimerRunning = errors.New("no timer is currently running")

// ValidationError reports bad input. It is always raised before any upstream
// call is made.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// invalid builds a ValidationError.
func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// TimerRunningError is returned by StartTimer when a timer is already running.
type TimerRunningError struct {
	TaskName string
	TimerID  int64
}

// Error implements the error interface.
func (e *TimerRunningError) Error() string {
	return fmt.Sprintf("timer already running for task '%s' (ID: %d)", e.TaskName, e.TimerID)
}
