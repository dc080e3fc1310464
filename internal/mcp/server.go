// Package mcp provides a Model Context Protocol server for TimeCamp.
// Time tracking writes are tools, cached reads are resources, and the
// reports built from those reads are prompts.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/timecamp-mcp/internal/prompt"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

const instructions = "Track time in TimeCamp. Find task ids with search_projects_and_tasks " +
	"or the timecamp://search/{query} resource before starting a timer or creating an entry. " +
	"Poll timecamp://changes to notice timers and entries changed through this server."

// NewServer creates an MCP server with all TimeCamp tools, resources, and
// prompts registered.
func NewServer(version string, svc *tracker.Service, prompts *prompt.Renderer) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "timecamp-mcp",
		Version: version,
	}, &mcp.ServerOptions{Instructions: instructions})
	registerTools(server, svc)
	registerResources(server, svc)
	registerPrompts(server, svc, prompts)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(true),
	}
}

// writeAnnotations returns annotations for write tools (additive, not destructive).
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(true),
	}
}

// registerTools adds all TimeCamp tools to the server.
func registerTools(server *mcp.Server, svc *tracker.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_timer",
		Description: "Start a timer for a task. Fails if a timer is already running. Use search_projects_and_tasks to find the task id.",
		Annotations: writeAnnotations(),
	}, handleStartTimer(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_timer",
		Description: "Stop the running timer and report how long it ran.",
		Annotations: writeAnnotations(),
	}, handleStopTimer(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_time_entry",
		Description: "Create a manual time entry for a task on a date between start_time and end_time (HH:MM).",
		Annotations: writeAnnotations(),
	}, handleCreateTimeEntry(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_timer_status",
		Description: "Show the running timer with its task and elapsed time.",
		Annotations: readOnlyAnnotations(),
	}, handleTimerStatus(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List projects with their task counts, sorted by name.",
		Annotations: readOnlyAnnotations(),
	}, handleListProjects(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_projects_and_tasks",
		Description: "Fuzzy search active projects and tasks by name. Returns up to 10 matches, best first.",
		Annotations: readOnlyAnnotations(),
	}, handleSearch(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_daily_summary",
		Description: "Summarize the time tracked on a date (default today), grouped by task, longest first.",
		Annotations: readOnlyAnnotations(),
	}, handleDailySummary(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_changes",
		Description: "List timer and time entry changes made through this server since a timestamp.",
		Annotations: readOnlyAnnotations(),
	}, handleChanges(svc))
}
