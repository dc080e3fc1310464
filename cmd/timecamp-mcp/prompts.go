package main

import (
	"cmp"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gorewood/timecamp-mcp/internal/prompt"
)

// promptList is the JSON shape of the prompts command.
type promptList struct {
	Dir       string                `json:"dir"`
	Templates []prompt.TemplateInfo `json:"templates"`
}

// newPromptsCmd creates the prompts command.
func newPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List the report prompts and their overrides",
		Long: `List the report prompts the server exposes.

A file named <prompt>.md in the override directory replaces the built-in
template of the same name. Files that fail to parse are ignored.

Examples:
  timecamp-mcp prompts         # Table of prompts
  timecamp-mcp prompts --json  # As JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printer := newPrinter(cmd)
			renderer := newRenderer(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			list := promptList{Dir: renderer.Dir(), Templates: renderer.List()}
			return printer.Result(list, func() {
				table := make([][]string, 0, len(list.Templates))
				for _, info := range list.Templates {
					source := info.Source
					switch {
					case info.Overridden:
						source = "user"
					case info.Ignored:
						source = "built-in (override ignored)"
					}
					table = append(table, []string{info.Name, source, info.Description})
				}
				printer.Table([]string{"Name", "Source", "Description"}, table)
				printer.Println()
				printer.KeyValue("Override directory", cmp.Or(list.Dir, "(none)"))
			})
		},
	}
}
