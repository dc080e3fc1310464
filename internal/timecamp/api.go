package timecamp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// Projects lists every project, archived ones included.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	data, err := c.do(ctx, http.MethodGet, "projects", nil)
	if err != nil {
		return nil, err
	}
	projects, err := parseProjects(data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return projects, nil
}

// Tasks lists every task, archived ones included.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	data, err := c.do(ctx, http.MethodGet, "tasks", nil)
	if err != nil {
		return nil, err
	}
	tasks, err := parseTasks(data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return tasks, nil
}

// RunningTimer returns the running timer, or nil when none is running.
func (c *Client) RunningTimer(ctx context.Context) (*Timer, error) {
	data, err := c.do(ctx, http.MethodGet, "timer_running", nil)
	if err != nil {
		return nil, err
	}
	timer, err := parseTimer(data, c.location)
	if err != nil {
		return nil, decodeErr(err)
	}
	return timer, nil
}

// StartTimer starts a timer and returns its id (zero if the upstream did not
// report one or the body was unreadable; the write itself succeeded).
func (c *Client) StartTimer(ctx context.Context, req StartTimerRequest) (int64, error) {
	payload := map[string]any{
		"task_id":    req.TaskID,
		"started_at": req.StartedAt.Format("2006-01-02T15:04:05"),
	}
	if req.Note != "" {
		payload["note"] = req.Note
	}

	data, err := c.do(ctx, http.MethodPost, "timer", payload)
	if err != nil {
		return 0, err
	}
	return c.createdID(ctx, "timer", data, "timer_id", "new_timer_id"), nil
}

// StopTimer stops the running timer.
func (c *Client) StopTimer(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPut, "timer", map[string]any{"action": "stop"})
	return err
}

// CreateTimeEntry records a manual entry and returns its id (zero if the
// upstream did not report one or the body was unreadable).
func (c *Client) CreateTimeEntry(ctx context.Context, entry NewTimeEntry) (int64, error) {
	payload := map[string]any{
		"task_id":    entry.TaskID,
		"date":       entry.Date,
		"start_time": entry.StartTime + ":00",
		"end_time":   entry.EndTime + ":00",
		"duration":   entry.Duration,
	}
	if entry.Note != "" {
		payload["note"] = entry.Note
	}

	data, err := c.do(ctx, http.MethodPost, "time_entries", payload)
	if err != nil {
		return 0, err
	}
	return c.createdID(ctx, "time entry", data, "entry_id", "id"), nil
}

// TimeEntries lists entries between from and to (YYYY-MM-DD, inclusive).
func (c *Client) TimeEntries(ctx context.Context, from, to string) ([]TimeEntry, error) {
	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)

	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("time_entries?%s", query.Encode()), nil)
	if err != nil {
		return nil, err
	}
	entries, err := parseEntries(data)
	if err != nil {
		return nil, decodeErr(err)
	}
	return entries, nil
}

// createdID reads the id from a successful write response. An unreadable body
// is logged and reported as id 0 so callers still treat the write as done.
func (c *Client) createdID(ctx context.Context, what string, data []byte, keys ...string) int64 {
	id, err := parseCreatedID(data, keys...)
	if err != nil {
		c.logger.WarnContext(ctx, "created "+what+" id unreadable", slog.Any("err", err))
		return 0
	}
	return id
}
