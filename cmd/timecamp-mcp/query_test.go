package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorewood/timecamp-mcp/internal/output"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// fakeTimeCamp answers the read endpoints the one-shot commands use.
func fakeTimeCamp(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/projects":
			_, _ = w.Write([]byte(`{"1":{"name":"Website","color":"#FF0000","archived":"0"},` +
				`"2":{"name":"Legacy","archived":"1"}}`))
		case "/tasks":
			_, _ = w.Write([]byte(`{"10":{"task_id":"10","name":"Frontend","project_id":"1","archived":"0"},` +
				`"11":{"task_id":"11","name":"Backend","project_id":"1","archived":"0"}}`))
		case "/timer_running":
			_, _ = w.Write([]byte(`[]`))
		case "/time_entries":
			if r.URL.Query().Get("from") == "2024-01-15" {
				_, _ = w.Write([]byte(`[{"id":"1","task_id":"10","duration":"5400","description":"layout"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupEnv isolates the command from the developer's config and points it
// at baseURL.
func setupEnv(t *testing.T, baseURL, token string) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("TIMECAMP_MCP_CONFIG_HOME", t.TempDir())
	t.Setenv("TIMECAMP_API_TOKEN", token)
	t.Setenv("TIMECAMP_BASE_URL", baseURL)
	t.Setenv("CACHE_TTL", "")
	t.Setenv("TIMECAMP_RATE_LIMIT", "")
	t.Setenv("TIMECAMP_LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestProjectsCommand_JSON(t *testing.T) {
	setupEnv(t, fakeTimeCamp(t, 0).URL, "token")

	out, _, err := execute(t, "projects", "--archived", "--json")
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	var list tracker.ProjectList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if list.TotalCount != 2 || !list.IncludeArchived {
		t.Errorf("list = %+v", list)
	}
	if list.Projects[0].Name != "Legacy" || list.Projects[1].TasksCount != 2 {
		t.Errorf("projects = %+v", list.Projects)
	}
}

func TestProjectsCommand_Human(t *testing.T) {
	setupEnv(t, fakeTimeCamp(t, 0).URL, "token")

	out, _, err := execute(t, "projects", "--color", "never")
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	want := "ID  Name     Tasks\n1   Website  2\n"
	if out != want {
		t.Errorf("output =\n%q\nwant\n%q", out, want)
	}
}

func TestSummaryCommand(t *testing.T) {
	setupEnv(t, fakeTimeCamp(t, 0).URL, "token")

	out, _, err := execute(t, "summary", "--date", "2024-01-15", "--json")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var summary tracker.DailySummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if summary.TotalTime != "1h 30m" || len(summary.Entries) != 1 || summary.Entries[0].ProjectName != "Website" {
		t.Errorf("summary = %+v", summary)
	}

	out, _, err = execute(t, "summary", "--date", "2024-01-15")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "Total: 1h 30m") || !strings.Contains(out, "Frontend  Website  1h 30m    layout") {
		t.Errorf("output =\n%s", out)
	}
}

func TestSummaryCommand_BadDate(t *testing.T) {
	setupEnv(t, fakeTimeCamp(t, 0).URL, "token")

	out, _, err := execute(t, "summary", "--date", "15/01/2024", "--json")
	if code := output.GetExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}
	if !strings.Contains(out, "Invalid date format") {
		t.Errorf("output = %s", out)
	}
}

func TestSearchCommand(t *testing.T) {
	setupEnv(t, fakeTimeCamp(t, 0).URL, "token")

	out, _, err := execute(t, "search", "front", "--json")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var result tracker.SearchResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(result.Results) == 0 || result.Results[0].Name != "Frontend" {
		t.Errorf("results = %+v", result.Results)
	}
}

func TestStatusCommand_NoTimer(t *testing.T) {
	setupEnv(t, fakeTimeCamp(t, 0).URL, "token")

	out, _, err := execute(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if strings.TrimSpace(out) != "No timer running" {
		t.Errorf("output = %q", out)
	}
}

func TestCommands_ExitCodes(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		setupEnv(t, fakeTimeCamp(t, 0).URL, "")
		out, _, err := execute(t, "status", "--json")
		if code := output.GetExitCode(err); code != output.ExitUserError {
			t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
		}
		if !strings.Contains(out, "TIMECAMP_API_TOKEN") {
			t.Errorf("output = %s", out)
		}
	})

	t.Run("upstream rejects token", func(t *testing.T) {
		setupEnv(t, fakeTimeCamp(t, http.StatusUnauthorized).URL, "bad")
		_, stderr, err := execute(t, "projects")
		if code := output.GetExitCode(err); code != output.ExitSystemError {
			t.Errorf("exit code = %d, want %d", code, output.ExitSystemError)
		}
		if !strings.Contains(stderr, "Invalid API token. Check TimeCamp settings") {
			t.Errorf("stderr = %q", stderr)
		}
	})
}
