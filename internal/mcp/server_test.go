package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"text/template"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/changelog"
	"github.com/gorewood/timecamp-mcp/internal/prompt"
	"github.com/gorewood/timecamp-mcp/internal/timecamp"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// testNow is a Monday.
var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

// --- Fake TimeCamp API ---

type fakeTimeCamp struct {
	mu      sync.Mutex
	running bool
	status  int // when set, every request fails with it
	writes  int
}

func (f *fakeTimeCamp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "GET /projects":
		_, _ = w.Write([]byte(`{"1":{"name":"Website","color":"#FF0000","archived":"0"},"2":{"name":"Internal","archived":"0"}}`))
	case "GET /tasks":
		_, _ = w.Write([]byte(`{"10":{"task_id":"10","name":"Frontend","project_id":"1","archived":"0"},` +
			`"20":{"task_id":"20","name":"Meetings","project_id":"2","archived":"0"}}`))
	case "GET /timer_running":
		if f.running {
			_, _ = w.Write([]byte(`[{"timer_id":"42","task_id":"10","name":"Frontend","started_at":"2024-01-15 09:00:00"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	case "POST /timer":
		f.writes++
		f.running = true
		_, _ = w.Write([]byte(`{"new_timer_id":42}`))
	case "PUT /timer":
		f.writes++
		f.running = false
		_, _ = w.Write([]byte(`{}`))
	case "POST /time_entries":
		f.writes++
		_, _ = w.Write([]byte(`{"entry_id":99}`))
	case "GET /time_entries":
		if r.URL.Query().Get("from") == "2024-01-15" {
			_, _ = w.Write([]byte(`[{"id":"1","task_id":"10","date":"2024-01-15","duration":"3600","description":"layout"},` +
				`{"id":"2","task_id":"20","date":"2024-01-15","duration":"1800"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeTimeCamp) setStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeTimeCamp) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// --- Test helpers ---

func newTestService(t *testing.T, upstream *fakeTimeCamp) *tracker.Service {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client, err := timecamp.NewClient("test-token",
		timecamp.WithBaseURL(srv.URL),
		timecamp.WithLocation(time.UTC),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	now := func() time.Time { return testNow }
	return tracker.NewService(client,
		cache.New(cache.WithClock(now)),
		changelog.New(changelog.WithClock(now)),
		tracker.WithClock(now),
		tracker.WithLocation(time.UTC),
	)
}

func newTestRenderer() *prompt.Renderer {
	return prompt.NewRenderer("", prompt.WithFuncs(template.FuncMap{"duration": tracker.FormatDuration}))
}

// connect starts the server on in-memory transports and returns a client session.
func connect(t *testing.T, upstream *fakeTimeCamp) *mcp.ClientSession {
	t.Helper()
	return connectWith(t, upstream, newTestRenderer())
}

func connectWith(t *testing.T, upstream *fakeTimeCamp, prompts *prompt.Renderer) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer("test", newTestService(t, upstream), prompts)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

// decodeStructured re-decodes a tool's structured output into out.
func decodeStructured(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	data, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// --- Listing ---

func TestServer_ListsEverything(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{
		"start_timer", "stop_timer", "create_time_entry", "get_timer_status",
		"list_projects", "search_projects_and_tasks", "get_daily_summary", "get_changes",
	} {
		if !slices.Contains(names, want) {
			t.Errorf("tool %q not registered (have %v)", want, names)
		}
	}

	resources, err := session.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources.Resources) != 4 {
		t.Errorf("len(Resources) = %d, want 4", len(resources.Resources))
	}
	templates, err := session.ListResourceTemplates(ctx, nil)
	if err != nil {
		t.Fatalf("ListResourceTemplates: %v", err)
	}
	if len(templates.ResourceTemplates) != 2 {
		t.Errorf("len(ResourceTemplates) = %d, want 2", len(templates.ResourceTemplates))
	}

	prompts, err := session.ListPrompts(ctx, nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(prompts.Prompts) != 3 {
		t.Errorf("len(Prompts) = %d, want 3", len(prompts.Prompts))
	}
}

// --- Tools ---

func TestTools_StartTwiceThenStop(t *testing.T) {
	upstream := &fakeTimeCamp{}
	session := connect(t, upstream)

	res := callTool(t, session, "start_timer", map[string]any{"task_id": 10, "note": "layout"})
	if res.IsError {
		t.Fatalf("start_timer failed: %s", resultText(res))
	}
	var started tracker.TimerStarted
	decodeStructured(t, res, &started)
	if started.TimerID != 42 || started.TaskName != "Frontend" {
		t.Errorf("started = %+v", started)
	}

	res = callTool(t, session, "start_timer", map[string]any{"task_id": 20})
	if !res.IsError {
		t.Fatal("second start_timer succeeded, want already-running error")
	}
	if got := resultText(res); !strings.Contains(got, "timer already running for task 'Frontend' (ID: 42)") {
		t.Errorf("error text = %q", got)
	}
	if n := upstream.writeCount(); n != 1 {
		t.Errorf("upstream writes = %d, want 1", n)
	}

	res = callTool(t, session, "stop_timer", nil)
	if res.IsError {
		t.Fatalf("stop_timer failed: %s", resultText(res))
	}
	var stopped tracker.TimerStopped
	decodeStructured(t, res, &stopped)
	if stopped.Duration != "1h 0m" {
		t.Errorf("Duration = %q, want 1h 0m", stopped.Duration)
	}

	res = callTool(t, session, "get_changes", nil)
	var changes ChangesOutput
	decodeStructured(t, res, &changes)
	if len(changes.Changes) != 2 ||
		changes.Changes[0].Type != changelog.TimerStarted ||
		changes.Changes[1].Type != changelog.TimerStopped {
		t.Fatalf("changes = %+v", changes.Changes)
	}
	if changes.Timestamp != changes.Changes[len(changes.Changes)-1].Timestamp {
		t.Errorf("cursor = %q, want the newest change timestamp", changes.Timestamp)
	}

	res = callTool(t, session, "get_changes", map[string]any{"since": changes.Timestamp})
	var next ChangesOutput
	decodeStructured(t, res, &next)
	if len(next.Changes) != 0 || next.Timestamp != changes.Timestamp {
		t.Errorf("poll with cursor = %+v, want no changes and the cursor echoed", next)
	}
}

func TestTools_StopWithoutTimer(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})
	res := callTool(t, session, "stop_timer", nil)
	if !res.IsError || !strings.Contains(resultText(res), "No timer is currently running") {
		t.Errorf("stop_timer = %v %q", res.IsError, resultText(res))
	}
}

func TestTools_CreateEntryValidation(t *testing.T) {
	upstream := &fakeTimeCamp{}
	session := connect(t, upstream)

	res := callTool(t, session, "create_time_entry", map[string]any{
		"task_id": 10, "date": "2024-01-15", "start_time": "16:00", "end_time": "14:00",
	})
	if !res.IsError || !strings.Contains(resultText(res), "End time must be after start time") {
		t.Errorf("create_time_entry = %v %q", res.IsError, resultText(res))
	}
	if n := upstream.writeCount(); n != 0 {
		t.Errorf("upstream writes = %d, want 0", n)
	}

	res = callTool(t, session, "create_time_entry", map[string]any{
		"task_id": 20, "date": "2024-01-15", "start_time": "14:00", "end_time": "16:00", "note": "planning",
	})
	if res.IsError {
		t.Fatalf("create_time_entry failed: %s", resultText(res))
	}
	var created tracker.EntryCreated
	decodeStructured(t, res, &created)
	if created.EntryID != 99 || created.Duration != "2h 0m" || created.ProjectName != "Internal" {
		t.Errorf("created = %+v", created)
	}
}

func TestTools_UpstreamErrorMessage(t *testing.T) {
	upstream := &fakeTimeCamp{}
	session := connect(t, upstream)
	upstream.setStatus(http.StatusUnauthorized)

	res := callTool(t, session, "list_projects", nil)
	if !res.IsError {
		t.Fatal("list_projects succeeded against a 401")
	}
	if got := resultText(res); got != "Invalid API token. Check TimeCamp settings" {
		t.Errorf("error text = %q", got)
	}
}

func TestTools_ReadOnly(t *testing.T) {
	session := connect(t, &fakeTimeCamp{running: true})

	var status tracker.TimerStatus
	decodeStructured(t, callTool(t, session, "get_timer_status", nil), &status)
	if !status.IsRunning || status.ElapsedTime != "1h 0m" {
		t.Errorf("status = %+v", status)
	}

	var summary tracker.DailySummary
	decodeStructured(t, callTool(t, session, "get_daily_summary", nil), &summary)
	if summary.TotalTime != "1h 30m" || !summary.IsTimerRunning || len(summary.Entries) != 2 {
		t.Errorf("summary = %+v", summary)
	}

	var search tracker.SearchResult
	decodeStructured(t, callTool(t, session, "search_projects_and_tasks", map[string]any{"query": "meetings"}), &search)
	if len(search.Results) == 0 || search.Results[0].ID != 20 {
		t.Errorf("search = %+v", search)
	}

	var projects tracker.ProjectList
	decodeStructured(t, callTool(t, session, "list_projects", nil), &projects)
	if projects.TotalCount != 2 {
		t.Errorf("projects = %+v", projects)
	}
}

// --- Resources ---

func readResource(t *testing.T, session *mcp.ClientSession, uri, ifNoneMatch string) *mcp.ReadResourceResult {
	t.Helper()
	params := &mcp.ReadResourceParams{URI: uri}
	if ifNoneMatch != "" {
		params.Meta = mcp.Meta{metaIfNoneMatch: ifNoneMatch}
	}
	res, err := session.ReadResource(context.Background(), params)
	if err != nil {
		t.Fatalf("ReadResource(%s): %v", uri, err)
	}
	return res
}

func etagOf(t *testing.T, res *mcp.ReadResourceResult) string {
	t.Helper()
	etag, _ := res.Meta[metaETag].(string)
	if etag == "" {
		t.Fatal("result carries no etag")
	}
	return etag
}

func TestResources_ConditionalRead(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})

	for _, uri := range []string{
		uriProjects,
		uriTasks,
		uriTimer,
		uriChanges,
		uriTimeEntries + "2024-01-15",
		uriSearch + "front",
	} {
		t.Run(uri, func(t *testing.T) {
			first := readResource(t, session, uri, "")
			etag := etagOf(t, first)
			if len(first.Contents) != 1 || first.Contents[0].Text == "" {
				t.Fatalf("contents = %+v", first.Contents)
			}
			if !json.Valid([]byte(first.Contents[0].Text)) {
				t.Errorf("contents are not JSON: %s", first.Contents[0].Text)
			}

			again := readResource(t, session, uri, etag)
			if again.Meta[metaNotModified] != true {
				t.Errorf("not_modified = %v, want true", again.Meta[metaNotModified])
			}
			if etagOf(t, again) != etag {
				t.Error("etag changed between identical reads")
			}
			if len(again.Contents) == 1 && again.Contents[0].Text != "" {
				t.Error("not-modified read carried content")
			}

			stale := readResource(t, session, uri, `"stale"`)
			if stale.Meta[metaNotModified] == true {
				t.Error("mismatched etag reported not modified")
			}
		})
	}
}

func TestResources_TimeEntries(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})

	res := readResource(t, session, uriTimeEntries+"2024-01-15", "")
	var summary tracker.DailySummary
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.TotalSeconds != 5400 || summary.Entries[0].TaskName != "Frontend" {
		t.Errorf("summary = %+v", summary)
	}
	if !slices.Equal(summary.Entries[0].Notes, []string{"layout"}) {
		t.Errorf("notes = %v", summary.Entries[0].Notes)
	}
}

func TestResources_ChangesEtagMovesOnWrite(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})

	before := etagOf(t, readResource(t, session, uriChanges, ""))
	if res := callTool(t, session, "start_timer", map[string]any{"task_id": 10}); res.IsError {
		t.Fatalf("start_timer: %s", resultText(res))
	}
	after := readResource(t, session, uriChanges, before)
	if after.Meta[metaNotModified] == true {
		t.Error("changes reported not modified after a write")
	}
}

func TestResources_TimerInvalidatedByStart(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})

	first := readResource(t, session, uriTimer, "")
	etag := etagOf(t, first)
	if res := callTool(t, session, "start_timer", map[string]any{"task_id": 10}); res.IsError {
		t.Fatalf("start_timer: %s", resultText(res))
	}

	after := readResource(t, session, uriTimer, etag)
	if after.Meta[metaNotModified] == true {
		t.Fatal("timer reported not modified after start")
	}
	var status tracker.TimerStatus
	if err := json.Unmarshal([]byte(after.Contents[0].Text), &status); err != nil {
		t.Fatal(err)
	}
	if !status.IsRunning {
		t.Error("timer resource still shows no timer after start")
	}
}

func TestResources_SearchUnescapesQuery(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})

	res := readResource(t, session, uriSearch+"front%20end", "")
	var result tracker.SearchResult
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &result); err != nil {
		t.Fatal(err)
	}
	if result.Query != "front end" {
		t.Errorf("Query = %q, want %q", result.Query, "front end")
	}
	if len(result.Results) == 0 || result.Results[0].Name != "Frontend" {
		t.Errorf("results = %+v", result.Results)
	}
}

// --- Prompts ---

func getPrompt(t *testing.T, session *mcp.ClientSession, name string, args map[string]string) string {
	t.Helper()
	res, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("GetPrompt(%s): %v", name, err)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %+v", res.Messages)
	}
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want text", res.Messages[0].Content)
	}
	return text.Text
}

func TestPrompts_Render(t *testing.T) {
	session := connect(t, &fakeTimeCamp{})

	standup := getPrompt(t, session, prompt.DailyStandup, map[string]string{"date": "2024-01-15"})
	if !strings.HasPrefix(standup, "Daily Standup for 2024-01-15") ||
		!strings.Contains(standup, "• Frontend (Website): 1h 0m - layout") {
		t.Errorf("standup =\n%s", standup)
	}

	weekly := getPrompt(t, session, prompt.WeeklyReport, map[string]string{"start_date": "2024-01-15"})
	if !strings.Contains(weekly, "Total time tracked: 1h 30m") ||
		!strings.Contains(weekly, "• Monday (2024-01-15): 1h 30m") {
		t.Errorf("weekly =\n%s", weekly)
	}

	insights := getPrompt(t, session, prompt.TimeTrackingInsights, nil)
	if !strings.Contains(insights, "Today's tracked time: 1h 30m") {
		t.Errorf("insights =\n%s", insights)
	}
}

func TestPrompts_ErrorsBecomeText(t *testing.T) {
	upstream := &fakeTimeCamp{}
	session := connect(t, upstream)
	upstream.setStatus(http.StatusServiceUnavailable)

	got := getPrompt(t, session, prompt.DailyStandup, nil)
	if got != "Error generating standup: TimeCamp unavailable. Try again later" {
		t.Errorf("standup = %q", got)
	}

	got = getPrompt(t, session, prompt.DailyStandup, map[string]string{"date": "Jan 5"})
	if !strings.HasPrefix(got, "Error generating standup: Invalid date format") {
		t.Errorf("standup = %q", got)
	}
}

func TestPrompts_BrokenOverrideFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir()
	broken := "---\nname: [unclosed\n---\nWeekly override"
	if err := os.WriteFile(filepath.Join(dir, prompt.WeeklyReport+".md"), []byte(broken), 0o600); err != nil {
		t.Fatal(err)
	}
	prompts := prompt.NewRenderer(dir, prompt.WithFuncs(template.FuncMap{"duration": tracker.FormatDuration}))
	session := connectWith(t, &fakeTimeCamp{}, prompts)

	list, err := session.ListPrompts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	var names []string
	for _, p := range list.Prompts {
		names = append(names, p.Name)
	}
	if !slices.Contains(names, prompt.WeeklyReport) {
		t.Fatalf("prompts = %v, want %s still listed", names, prompt.WeeklyReport)
	}

	weekly := getPrompt(t, session, prompt.WeeklyReport, map[string]string{"start_date": "2024-01-15"})
	if strings.Contains(weekly, "Weekly override") || !strings.Contains(weekly, "Total time tracked: 1h 30m") {
		t.Errorf("weekly =\n%s", weekly)
	}
}
