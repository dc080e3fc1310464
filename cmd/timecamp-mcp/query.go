package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/timecamp-mcp/internal/output"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		Long: `Show the running TimeCamp timer, if any.

Examples:
  timecamp-mcp status         # Human-readable timer status
  timecamp-mcp status --json  # Timer status as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd, cmd.ErrOrStderr())
			if err != nil {
				return fail(printer, err)
			}
			res, err := a.svc.TimerStatus(cmd.Context(), "")
			if err != nil {
				return fail(printer, err)
			}
			status := res.Value
			return printer.Result(status, func() {
				if !status.IsRunning {
					printer.Println(status.Message)
					return
				}
				lines := []string{
					printer.Pair("Task", status.TaskName),
					printer.Pair("Project", status.ProjectName),
					printer.Pair("Elapsed", status.ElapsedTime),
				}
				if status.StartTime != "" {
					lines = append(lines, printer.Pair("Started", status.StartTime))
				}
				printer.Box("Timer running", strings.Join(lines, "\n"))
			})
		},
	}
}

// newSummaryCmd creates the summary command.
func newSummaryCmd() *cobra.Command {
	var dateFlag string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show tracked time for a day grouped by task",
		Long: `Show tracked time for a day, grouped by task, longest first.

Examples:
  timecamp-mcp summary                    # Today
  timecamp-mcp summary --date 2024-01-15  # A specific day
  timecamp-mcp summary --json             # As JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd, cmd.ErrOrStderr())
			if err != nil {
				return fail(printer, err)
			}
			res, err := a.svc.DailySummary(cmd.Context(), dateFlag, "")
			if err != nil {
				return fail(printer, err)
			}
			summary := res.Value
			return printer.Result(summary, func() { printSummary(printer, summary) })
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Date in YYYY-MM-DD format (default today)")
	return cmd
}

func printSummary(printer *output.Printer, summary tracker.DailySummary) {
	printer.Section(summary.Date)
	printer.KeyValue("Total", summary.TotalTime)
	if summary.IsTimerRunning {
		printer.KeyValue("Running", summary.CurrentTask)
	}
	if len(summary.Entries) == 0 {
		printer.Println("No time entries.")
		return
	}
	rows := make([][]string, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		rows = append(rows, []string{e.TaskName, e.ProjectName, e.Duration, strings.Join(e.Notes, "; ")})
	}
	printer.Println()
	printer.Table([]string{"Task", "Project", "Duration", "Notes"}, rows)
}

// newProjectsCmd creates the projects command.
func newProjectsCmd() *cobra.Command {
	var archivedFlag bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with task counts",
		Long: `List TimeCamp projects sorted by name, with their task counts.

Examples:
  timecamp-mcp projects             # Active projects
  timecamp-mcp projects --archived  # Include archived projects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd, cmd.ErrOrStderr())
			if err != nil {
				return fail(printer, err)
			}
			list, err := a.svc.ProjectList(cmd.Context(), archivedFlag)
			if err != nil {
				return fail(printer, err)
			}
			return printer.Result(list, func() {
				rows := make([][]string, 0, len(list.Projects))
				for _, p := range list.Projects {
					row := []string{strconv.FormatInt(p.ID, 10), p.Name, strconv.Itoa(p.TasksCount)}
					if archivedFlag {
						row = append(row, strconv.FormatBool(p.Archived))
					}
					rows = append(rows, row)
				}
				headers := []string{"ID", "Name", "Tasks"}
				if archivedFlag {
					headers = append(headers, "Archived")
				}
				printer.Table(headers, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&archivedFlag, "archived", false, "Include archived projects")
	return cmd
}

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search active projects and tasks",
		Long: `Fuzzy-search active projects and tasks by name. Tasks also match on
their project's name.

Examples:
  timecamp-mcp search frontend
  timecamp-mcp search "website design" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			a, err := newApp(cmd, cmd.ErrOrStderr())
			if err != nil {
				return fail(printer, err)
			}
			result, err := a.svc.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fail(printer, err)
			}
			return printer.Result(result, func() {
				if len(result.Results) == 0 {
					printer.Println("No matches.")
					return
				}
				rows := make([][]string, 0, len(result.Results))
				for _, hit := range result.Results {
					rows = append(rows, []string{
						strconv.FormatFloat(hit.MatchScore, 'f', 2, 64),
						hit.Type,
						strconv.FormatInt(hit.ID, 10),
						hit.Name,
						hit.ProjectName,
					})
				}
				printer.Table([]string{"Score", "Type", "ID", "Name", "Project"}, rows)
			})
		},
	}
}
