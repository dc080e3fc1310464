package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/timecamp-mcp/internal/prompt"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// reportFunc gathers the data a prompt template renders.
type reportFunc func(ctx context.Context, args map[string]string) (any, error)

// reportPrompt binds a template to its data source.
type reportPrompt struct {
	name      string
	errPrefix string
	report    reportFunc
}

func reportPrompts(svc *tracker.Service) []reportPrompt {
	return []reportPrompt{
		{
			name:      prompt.DailyStandup,
			errPrefix: "Error generating standup",
			report: func(ctx context.Context, args map[string]string) (any, error) {
				res, err := svc.DailySummary(ctx, args["date"], "")
				return res.Value, err
			},
		},
		{
			name:      prompt.WeeklyReport,
			errPrefix: "Error generating weekly report",
			report: func(ctx context.Context, args map[string]string) (any, error) {
				return svc.WeeklyReport(ctx, args["start_date"])
			},
		},
		{
			name:      prompt.TimeTrackingInsights,
			errPrefix: "Error generating insights",
			report: func(ctx context.Context, _ map[string]string) (any, error) {
				return svc.Insights(ctx)
			},
		},
	}
}

// registerPrompts adds the report prompts. Metadata comes from each
// template's frontmatter; templates are re-read on every request so edits
// to user overrides apply without a restart.
func registerPrompts(server *mcp.Server, svc *tracker.Service, prompts *prompt.Renderer) {
	for _, rp := range reportPrompts(svc) {
		tmpl, err := prompts.Load(rp.name)
		if err != nil {
			// Still listed; the handler reports the load error as prompt text.
			tmpl = &prompt.Template{Name: rp.name}
		}
		server.AddPrompt(&mcp.Prompt{
			Name:        rp.name,
			Description: tmpl.Description,
			Arguments:   toPromptArguments(tmpl.Arguments),
		}, handlePrompt(rp, prompts))
	}
}

// handlePrompt renders a report. Failures are reported inside the prompt
// text rather than as protocol errors.
func handlePrompt(rp reportPrompt, prompts *prompt.Renderer) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		text, err := renderReport(ctx, rp, prompts, args)
		if err != nil {
			text = rp.errPrefix + ": " + userMessage(err)
		}
		return &mcp.GetPromptResult{
			Description: rp.name,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			}},
		}, nil
	}
}

func renderReport(ctx context.Context, rp reportPrompt, prompts *prompt.Renderer, args map[string]string) (string, error) {
	data, err := rp.report(ctx, args)
	if err != nil {
		return "", err
	}
	return prompts.Render(rp.name, data)
}

func toPromptArguments(args []prompt.Argument) []*mcp.PromptArgument {
	out := make([]*mcp.PromptArgument, 0, len(args))
	for _, a := range args {
		out = append(out, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return out
}
