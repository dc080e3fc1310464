package timecamp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Project is a TimeCamp project.
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Archived bool   `json:"archived"`
}

// Task is a TimeCamp task. ProjectID is zero when the task has no project.
type Task struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProjectID int64  `json:"project_id,omitempty"`
	Archived  bool   `json:"archived"`
}

// Timer is a running timer. HasStart is false when the upstream omitted or
// sent an unparseable start instant.
type Timer struct {
	TimerID     int64     `json:"timer_id"`
	TaskID      int64     `json:"task_id,omitempty"`
	Name        string    `json:"name,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	HasStart    bool      `json:"-"`
}

// TimeEntry is a recorded block of time.
type TimeEntry struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"task_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Duration  int64  `json:"duration"`
	Note      string `json:"note,omitempty"`
}

// StartTimerRequest is the payload for starting a timer.
type StartTimerRequest struct {
	TaskID    int64
	StartedAt time.Time
	Note      string
}

// NewTimeEntry is the payload for creating a manual entry. Times are HH:MM.
type NewTimeEntry struct {
	TaskID    int64
	Date      string
	StartTime string
	EndTime   string
	Duration  int64
	Note      string
}

// --- Wire decoding ---
//
// The upstream sends objects keyed by string ids, numbers that may be quoted,
// and booleans as "0"/"1". Everything below converts that into the typed
// records above.

// flexInt decodes a JSON number or numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if text == "" || text == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("parsing %q as integer: %w", text, err)
	}
	*f = flexInt(n)
	return nil
}

// flexBool decodes true/false, 0/1 and "0"/"1".
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch strings.ToLower(text) {
	case "1", "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

// flexString decodes a JSON string or number as text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = flexString(trimmed)
	return nil
}

type wireProject struct {
	ID       flexInt    `json:"id"`
	Name     *string    `json:"name"`
	Color    flexString `json:"color"`
	Archived flexBool   `json:"archived"`
}

type wireTask struct {
	ID        flexInt  `json:"task_id"`
	Name      *string  `json:"name"`
	ProjectID flexInt  `json:"project_id"`
	Archived  flexBool `json:"archived"`
}

type wireTimer struct {
	TimerID     flexInt    `json:"timer_id"`
	TaskID      flexInt    `json:"task_id"`
	Name        flexString `json:"name"`
	ProjectName flexString `json:"project_name"`
	StartedAt   flexString `json:"started_at"`
}

type wireEntry struct {
	ID        flexInt    `json:"id"`
	TaskID    flexInt    `json:"task_id"`
	Date      flexString `json:"date"`
	StartTime flexString `json:"start_time"`
	EndTime   flexString `json:"end_time"`
	Duration  *flexInt   `json:"duration"`
	Note      flexString `json:"description"`
	AltNote   flexString `json:"note"`
}

// keyedObjects splits a payload that is either {"<id>": {...}} or [{...}]
// into its raw items. For the object form, ids are the keys.
func keyedObjects(data []byte) (map[string]json.RawMessage, []json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, nil, err
		}
		return nil, items, nil
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return nil, nil, err
	}
	return keyed, nil, nil
}

// isObject reports whether raw is a JSON object.
func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// parseID parses a string key as an integer id.
func parseID(key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
	return id, err == nil
}

// parseProjects converts a projects payload. Items without a name or id are skipped.
func parseProjects(data []byte) ([]Project, error) {
	keyed, list, err := keyedObjects(data)
	if err != nil {
		return nil, fmt.Errorf("decoding projects: %w", err)
	}

	var projects []Project
	add := func(id int64, raw json.RawMessage) error {
		var wire wireProject
		if err := json.Unmarshal(raw, &wire); err != nil {
			return fmt.Errorf("decoding project %d: %w", id, err)
		}
		if id == 0 {
			id = int64(wire.ID)
		}
		if id == 0 || wire.Name == nil {
			return nil
		}
		projects = append(projects, Project{
			ID:       id,
			Name:     *wire.Name,
			Color:    string(wire.Color),
			Archived: bool(wire.Archived),
		})
		return nil
	}

	for key, raw := range keyed {
		id, ok := parseID(key)
		if !ok || !isObject(raw) {
			continue
		}
		if err := add(id, raw); err != nil {
			return nil, err
		}
	}
	for _, raw := range list {
		if !isObject(raw) {
			continue
		}
		if err := add(0, raw); err != nil {
			return nil, err
		}
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

// parseTasks converts a tasks payload. Items without a name or id are skipped.
func parseTasks(data []byte) ([]Task, error) {
	keyed, list, err := keyedObjects(data)
	if err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}

	var tasks []Task
	add := func(id int64, raw json.RawMessage) error {
		var wire wireTask
		if err := json.Unmarshal(raw, &wire); err != nil {
			return fmt.Errorf("decoding task %d: %w", id, err)
		}
		if id == 0 {
			id = int64(wire.ID)
		}
		if id == 0 || wire.Name == nil {
			return nil
		}
		tasks = append(tasks, Task{
			ID:        id,
			Name:      *wire.Name,
			ProjectID: int64(wire.ProjectID),
			Archived:  bool(wire.Archived),
		})
		return nil
	}

	for key, raw := range keyed {
		id, ok := parseID(key)
		if !ok || !isObject(raw) {
			continue
		}
		if err := add(id, raw); err != nil {
			return nil, err
		}
	}
	for _, raw := range list {
		if !isObject(raw) {
			continue
		}
		if err := add(0, raw); err != nil {
			return nil, err
		}
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// parseTimer converts a timer_running payload. It returns nil when no timer
// is running: an empty body, an empty object or list, or an object without a
// timer_id.
func parseTimer(data []byte, loc *time.Location) (*Timer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding timer: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		trimmed = items[0]
	}

	var wire wireTimer
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("decoding timer: %w", err)
	}
	if wire.TimerID == 0 {
		return nil, nil
	}

	timer := &Timer{
		TimerID:     int64(wire.TimerID),
		TaskID:      int64(wire.TaskID),
		Name:        string(wire.Name),
		ProjectName: string(wire.ProjectName),
	}
	if started, ok := parseInstant(string(wire.StartedAt), loc); ok {
		timer.StartedAt = started
		timer.HasStart = true
	}
	return timer, nil
}

// parseEntries converts a time_entries payload, ordered by date then id.
func parseEntries(data []byte) ([]TimeEntry, error) {
	keyed, list, err := keyedObjects(data)
	if err != nil {
		return nil, fmt.Errorf("decoding time entries: %w", err)
	}

	var entries []TimeEntry
	add := func(id int64, raw json.RawMessage) error {
		var wire wireEntry
		if err := json.Unmarshal(raw, &wire); err != nil {
			return fmt.Errorf("decoding time entry %d: %w", id, err)
		}
		if wire.Duration == nil {
			return nil
		}
		if id == 0 {
			id = int64(wire.ID)
		}
		note := string(wire.AltNote)
		if note == "" {
			note = string(wire.Note)
		}
		entries = append(entries, TimeEntry{
			ID:        id,
			TaskID:    int64(wire.TaskID),
			Date:      string(wire.Date),
			StartTime: string(wire.StartTime),
			EndTime:   string(wire.EndTime),
			Duration:  int64(*wire.Duration),
			Note:      note,
		})
		return nil
	}

	for key, raw := range keyed {
		id, ok := parseID(key)
		if !ok || !isObject(raw) {
			continue
		}
		if err := add(id, raw); err != nil {
			return nil, err
		}
	}
	for _, raw := range list {
		if !isObject(raw) {
			continue
		}
		if err := add(0, raw); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// parseCreatedID extracts the id of a newly created object from any of the
// given keys.
func parseCreatedID(data []byte, keys ...string) (int64, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, nil
	}
	var fields map[string]flexInt
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		// Non-numeric fields are possible; fall back to a lenient pass.
		var loose map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &loose); err != nil {
			return 0, fmt.Errorf("decoding response: %w", err)
		}
		for _, key := range keys {
			var id flexInt
			if raw, ok := loose[key]; ok && json.Unmarshal(raw, &id) == nil && id != 0 {
				return int64(id), nil
			}
		}
		return 0, nil
	}
	for _, key := range keys {
		if id := fields[key]; id != 0 {
			return int64(id), nil
		}
	}
	return 0, nil
}

// instantLayouts are the start-instant formats seen from the upstream.
var instantLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseInstant parses an RFC 3339 instant, or a zone-less one in loc.
func parseInstant(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range instantLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
