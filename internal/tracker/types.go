package tracker

import (
	"time"

	"github.com/gorewood/timecamp-mcp/internal/changelog"
)

// Fallback names used when a lookup misses.
const (
	unknownTask     = "Unknown"
	noProject       = "No Project"
	defaultColor    = "#4CAF50"
	unknownDuration = "Unknown duration"
)

// TimerStarted confirms a started timer.
type TimerStarted struct {
	Message     string `json:"message"`
	TimerID     int64  `json:"timer_id"`
	TaskID      int64  `json:"task_id"`
	TaskName    string `json:"task_name"`
	ProjectName string `json:"project_name,omitempty"`
	StartedAt   string `json:"started_at"`
}

// TimerStopped confirms a stopped timer.
type TimerStopped struct {
	Message         string `json:"message"`
	Duration        string `json:"duration"`
	DurationSeconds int64  `json:"duration_seconds"`
	TaskName        string `json:"task_name"`
	TaskID          int64  `json:"task_id,omitempty"`
	TimerID         int64  `json:"timer_id,omitempty"`
}

// TimerStatus describes the running timer, if any.
type TimerStatus struct {
	IsRunning      bool   `json:"is_running"`
	Message        string `json:"message,omitempty"`
	TaskName       string `json:"task_name,omitempty"`
	TaskID         int64  `json:"task_id,omitempty"`
	TimerID        int64  `json:"timer_id,omitempty"`
	ProjectName    string `json:"project_name,omitempty"`
	ElapsedTime    string `json:"elapsed_time,omitempty"`
	ElapsedSeconds int64  `json:"elapsed_seconds,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
}

// EntryInput is a manual time entry request. Times are HH:MM on Date.
type EntryInput struct {
	TaskID    int64
	Date      string
	StartTime string
	EndTime   string
	Note      string
}

// EntryCreated confirms a created time entry.
type EntryCreated struct {
	EntryID         int64  `json:"entry_id"`
	TaskID          int64  `json:"task_id"`
	TaskName        string `json:"task_name"`
	ProjectName     string `json:"project_name"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Duration        string `json:"duration"`
	DurationSeconds int64  `json:"duration_seconds"`
	Note            string `json:"note"`
}

// SummaryEntry is the time spent on one task within a day.
type SummaryEntry struct {
	TaskName        string   `json:"task_name"`
	TaskID          int64    `json:"task_id"`
	ProjectName     string   `json:"project_name"`
	Duration        string   `json:"duration"`
	DurationSeconds int64    `json:"duration_seconds"`
	Notes           []string `json:"notes"`
}

// DailySummary aggregates one day's entries by task, longest first.
type DailySummary struct {
	Date           string         `json:"date"`
	TotalTime      string         `json:"total_time"`
	TotalSeconds   int64          `json:"total_seconds"`
	Entries        []SummaryEntry `json:"entries"`
	EntryCount     int            `json:"entry_count"`
	IsTimerRunning bool           `json:"is_timer_running"`
	CurrentTask    string         `json:"current_task,omitempty"`
	CurrentTaskID  int64          `json:"current_task_id,omitempty"`
}

// ProjectInfo is one project with its task count.
type ProjectInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	TasksCount int    `json:"tasks_count"`
	Archived   bool   `json:"archived"`
}

// ProjectList is a sorted list of projects.
type ProjectList struct {
	Projects        []ProjectInfo `json:"projects"`
	TotalCount      int           `json:"total_count"`
	IncludeArchived bool          `json:"include_archived"`
}

// TaskInfo is one task with its project's name.
type TaskInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ProjectID   int64  `json:"project_id,omitempty"`
	ProjectName string `json:"project_name"`
	Archived    bool   `json:"archived"`
}

// SearchHit is one fuzzy-search match.
type SearchHit struct {
	Type        string  `json:"type"`
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	MatchScore  float64 `json:"match_score"`
	ProjectName string  `json:"project_name,omitempty"`
}

// SearchResult lists matches, best first.
type SearchResult struct {
	Results      []SearchHit `json:"results"`
	TotalResults int         `json:"total_results"`
	Query        string      `json:"query"`
}

// DayTotal is the time tracked on one day.
type DayTotal struct {
	Date         string `json:"date"`
	Weekday      string `json:"weekday"`
	TotalTime    string `json:"total_time"`
	TotalSeconds int64  `json:"total_seconds"`
}

// NamedTotal is the time tracked against a project or task.
type NamedTotal struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Seconds  int64  `json:"seconds"`
}

// WeeklyReport aggregates seven consecutive days.
type WeeklyReport struct {
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	TotalTime    string       `json:"total_time"`
	TotalSeconds int64        `json:"total_seconds"`
	Days         []DayTotal   `json:"days"`
	Projects     []NamedTotal `json:"projects"`
	TopTasks     []NamedTotal `json:"top_tasks"`
	SkippedDays  []string     `json:"skipped_days,omitempty"`
}

// Insights compares today with yesterday.
type Insights struct {
	Today        DailySummary `json:"today"`
	Yesterday    DailySummary `json:"yesterday"`
	Timer        TimerStatus  `json:"timer"`
	TrackingLess bool         `json:"tracking_less"`
}

// ChangeFeed is the polling view of the change log. Timestamp is the cursor
// for the next poll and is zero until the log has a record.
type ChangeFeed struct {
	Changes   []changelog.Record `json:"changes"`
	Timestamp time.Time          `json:"timestamp"`
}
