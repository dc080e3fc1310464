package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/timecamp-mcp/internal/changelog"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// --- Write tools ---

// StartTimerInput is the input for the start_timer tool.
type StartTimerInput struct {
	TaskID int64  `json:"task_id"        jsonschema:"id of the task to track"`
	Note   string `json:"note,omitempty" jsonschema:"optional note, at most 1000 characters"`
}

func handleStartTimer(svc *tracker.Service) mcp.ToolHandlerFor[StartTimerInput, tracker.TimerStarted] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StartTimerInput) (*mcp.CallToolResult, tracker.TimerStarted, error) {
		out, err := svc.StartTimer(ctx, input.TaskID, input.Note)
		if err != nil {
			return nil, tracker.TimerStarted{}, toolError(err)
		}
		return nil, out, nil
	}
}

// StopTimerInput is the input for the stop_timer tool (no parameters needed).
type StopTimerInput struct{}

func handleStopTimer(svc *tracker.Service) mcp.ToolHandlerFor[StopTimerInput, tracker.TimerStopped] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ StopTimerInput) (*mcp.CallToolResult, tracker.TimerStopped, error) {
		out, err := svc.StopTimer(ctx)
		if err != nil {
			return nil, tracker.TimerStopped{}, toolError(err)
		}
		return nil, out, nil
	}
}

// CreateTimeEntryInput is the input for the create_time_entry tool.
type CreateTimeEntryInput struct {
	TaskID    int64  `json:"task_id"        jsonschema:"id of the task the time belongs to"`
	Date      string `json:"date"           jsonschema:"date in YYYY-MM-DD format"`
	StartTime string `json:"start_time"     jsonschema:"start time in HH:MM format"`
	EndTime   string `json:"end_time"       jsonschema:"end time in HH:MM format, after start_time"`
	Note      string `json:"note,omitempty" jsonschema:"optional note, at most 1000 characters"`
}

func handleCreateTimeEntry(svc *tracker.Service) mcp.ToolHandlerFor[CreateTimeEntryInput, tracker.EntryCreated] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateTimeEntryInput) (*mcp.CallToolResult, tracker.EntryCreated, error) {
		out, err := svc.CreateTimeEntry(ctx, tracker.EntryInput{
			TaskID:    input.TaskID,
			Date:      input.Date,
			StartTime: input.StartTime,
			EndTime:   input.EndTime,
			Note:      input.Note,
		})
		if err != nil {
			return nil, tracker.EntryCreated{}, toolError(err)
		}
		return nil, out, nil
	}
}

// --- Read tools ---

// TimerStatusInput is the input for the get_timer_status tool (no parameters needed).
type TimerStatusInput struct{}

func handleTimerStatus(svc *tracker.Service) mcp.ToolHandlerFor[TimerStatusInput, tracker.TimerStatus] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ TimerStatusInput) (*mcp.CallToolResult, tracker.TimerStatus, error) {
		res, err := svc.TimerStatus(ctx, "")
		if err != nil {
			return nil, tracker.TimerStatus{}, toolError(err)
		}
		return nil, res.Value, nil
	}
}

// ListProjectsInput is the input for the list_projects tool.
type ListProjectsInput struct {
	IncludeArchived bool `json:"include_archived,omitempty" jsonschema:"include archived projects"`
}

func handleListProjects(svc *tracker.Service) mcp.ToolHandlerFor[ListProjectsInput, tracker.ProjectList] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListProjectsInput) (*mcp.CallToolResult, tracker.ProjectList, error) {
		out, err := svc.ProjectList(ctx, input.IncludeArchived)
		if err != nil {
			return nil, tracker.ProjectList{}, toolError(err)
		}
		return nil, out, nil
	}
}

// SearchInput is the input for the search_projects_and_tasks tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to match against project and task names"`
}

func handleSearch(svc *tracker.Service) mcp.ToolHandlerFor[SearchInput, tracker.SearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, tracker.SearchResult, error) {
		out, err := svc.Search(ctx, input.Query)
		if err != nil {
			return nil, tracker.SearchResult{}, toolError(err)
		}
		return nil, out, nil
	}
}

// DailySummaryInput is the input for the get_daily_summary tool.
type DailySummaryInput struct {
	Date string `json:"date,omitempty" jsonschema:"date in YYYY-MM-DD format (default today)"`
}

func handleDailySummary(svc *tracker.Service) mcp.ToolHandlerFor[DailySummaryInput, tracker.DailySummary] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DailySummaryInput) (*mcp.CallToolResult, tracker.DailySummary, error) {
		res, err := svc.DailySummary(ctx, input.Date, "")
		if err != nil {
			return nil, tracker.DailySummary{}, toolError(err)
		}
		return nil, res.Value, nil
	}
}

// ChangesInput is the input for the get_changes tool.
type ChangesInput struct {
	Since string `json:"since,omitempty" jsonschema:"RFC 3339 timestamp; only changes after it are returned (default all)"`
}

// ChangeRecord is one recorded change.
type ChangeRecord struct {
	ID        string         `json:"id"        jsonschema:"change id"`
	Type      string         `json:"type"      jsonschema:"timer_started, timer_stopped or time_entry_created"`
	Timestamp string         `json:"timestamp" jsonschema:"when the change was recorded (RFC 3339)"`
	Details   map[string]any `json:"details"   jsonschema:"change details"`
}

// ChangesOutput is the output for the get_changes tool.
type ChangesOutput struct {
	Changes   []ChangeRecord `json:"changes"   jsonschema:"changes, oldest first"`
	Timestamp string         `json:"timestamp,omitempty" jsonschema:"cursor; pass it as since on the next poll (empty until a change exists)"`
}

func handleChanges(svc *tracker.Service) mcp.ToolHandlerFor[ChangesInput, ChangesOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ChangesInput) (*mcp.CallToolResult, ChangesOutput, error) {
		since, err := parseSince(input.Since)
		if err != nil {
			return nil, ChangesOutput{}, err
		}
		return nil, toChangesOutput(svc.Changes(since)), nil
	}
}

// toChangesOutput renders a change feed with string timestamps.
func toChangesOutput(feed tracker.ChangeFeed) ChangesOutput {
	out := ChangesOutput{
		Changes: make([]ChangeRecord, 0, len(feed.Changes)),
	}
	if !feed.Timestamp.IsZero() {
		out.Timestamp = feed.Timestamp.Format(time.RFC3339Nano)
	}
	for _, r := range feed.Changes {
		out.Changes = append(out.Changes, toChangeRecord(r))
	}
	return out
}

func toChangeRecord(r changelog.Record) ChangeRecord {
	return ChangeRecord{
		ID:        r.ID,
		Type:      r.Type,
		Timestamp: r.Timestamp.Format(time.RFC3339Nano),
		Details:   r.Details,
	}
}
