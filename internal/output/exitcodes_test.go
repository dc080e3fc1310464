package output

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gorewood/timecamp-mcp/internal/timecamp"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

func TestExitCodeConstants(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitUserError", ExitUserError, 1},
		{"ExitSystemError", ExitSystemError, 2},
		{"ExitConflict", ExitConflict, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestExitErrorWrapping(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewSystemErrorWithCause("TimeCamp unreachable", underlying)

	if err.Code != ExitSystemError {
		t.Errorf("Code = %d, want %d", err.Code, ExitSystemError)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
	if err.Error() != "TimeCamp unreachable" {
		t.Errorf("Error() = %q, want %q", err.Error(), "TimeCamp unreachable")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "validation",
			err:      fmt.Errorf("creating: %w", &tracker.ValidationError{Field: "date", Message: "Invalid date format. Use YYYY-MM-DD"}),
			wantCode: ExitUserError,
			wantMsg:  "Invalid date format. Use YYYY-MM-DD",
		},
		{
			name:     "timer running",
			err:      &tracker.TimerRunningError{TaskName: "Frontend", TimerID: 42},
			wantCode: ExitConflict,
			wantMsg:  "timer already running for task 'Frontend' (ID: 42)",
		},
		{
			name:     "no timer",
			err:      tracker.ErrNoTimerRunning,
			wantCode: ExitUserError,
			wantMsg:  "No timer is currently running",
		},
		{
			name:     "upstream",
			err:      fmt.Errorf("fetching tasks: %w", &timecamp.Error{Kind: timecamp.KindInvalidCredentials, Status: 401}),
			wantCode: ExitSystemError,
			wantMsg:  "Invalid API token. Check TimeCamp settings",
		},
		{
			name:     "already classified",
			err:      NewConflictError("busy"),
			wantCode: ExitConflict,
			wantMsg:  "busy",
		},
		{
			name:     "unknown",
			err:      errors.New("disk full"),
			wantCode: ExitSystemError,
			wantMsg:  "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			var exitErr *ExitError
			if !errors.As(got, &exitErr) {
				t.Fatalf("Classify() = %T, want *ExitError", got)
			}
			if exitErr.Code != tt.wantCode || exitErr.Message != tt.wantMsg {
				t.Errorf("Classify() = {%d %q}, want {%d %q}", exitErr.Code, exitErr.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitSuccess},
		{"user", NewUserError("bad input"), ExitUserError},
		{"conflict", NewConflictError("duplicate"), ExitConflict},
		{"wrapped system", fmt.Errorf("run: %w", NewSystemErrorWithCause("down", nil)), ExitSystemError},
		{"regular error defaults to user error", errors.New("some error"), ExitUserError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}
