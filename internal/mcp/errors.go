package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorewood/timecamp-mcp/internal/timecamp"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// toolError reduces err to the stable message a client should see. Upstream
// failures keep only their classified message; the wrapping context and any
// transport detail stay in the server log.
func toolError(err error) error {
	return errors.New(userMessage(err))
}

func userMessage(err error) string {
	var apiErr *timecamp.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	var valErr *tracker.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var running *tracker.TimerRunningError
	if errors.As(err, &running) {
		return running.Error()
	}
	if errors.Is(err, tracker.ErrNoTimerRunning) {
		return "No timer is currently running"
	}
	return err.Error()
}

// parseSince parses an optional RFC 3339 cursor.
func parseSince(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since %q: use an RFC 3339 timestamp", value)
	}
	return t, nil
}
