package main

import (
	"io"
	"log/slog"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/changelog"
	"github.com/gorewood/timecamp-mcp/internal/config"
	"github.com/gorewood/timecamp-mcp/internal/output"
	"github.com/gorewood/timecamp-mcp/internal/prompt"
	"github.com/gorewood/timecamp-mcp/internal/timecamp"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// app is the wired service graph shared by serve and the one-shot commands.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	svc     *tracker.Service
	prompts *prompt.Renderer
}

// newApp loads configuration and wires the gateway, cache, change log,
// service, and prompt renderer. Logs go to logOut, never to stdout.
func newApp(cmd *cobra.Command, logOut io.Writer) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, output.NewUserError(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, output.NewUserError(err.Error())
	}
	level, _ := cfg.Level()

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	opts := []timecamp.Option{timecamp.WithLogger(logger)}
	if cfg.BaseURL != "" {
		opts = append(opts, timecamp.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, timecamp.WithRateLimit(cfg.RateLimit, cfg.Burst()))
	}
	client, err := timecamp.NewClient(cfg.APIToken, opts...)
	if err != nil {
		return nil, output.NewUserError(err.Error())
	}

	svc := tracker.NewService(client,
		cache.New(cache.WithDefaultTTL(cfg.TTL())),
		changelog.New(),
		tracker.WithLogger(logger),
	)
	prompts := newRenderer(logger)

	logger.Debug("configured",
		slog.String("config", path),
		slog.Duration("cache_ttl", cfg.TTL()),
		slog.Float64("rate_limit", cfg.RateLimit))

	return &app{cfg: cfg, logger: logger, svc: svc, prompts: prompts}, nil
}

// newRenderer builds the prompt renderer over the user override directory.
func newRenderer(logger *slog.Logger) *prompt.Renderer {
	return prompt.NewRenderer(config.PromptDir(),
		prompt.WithFuncs(template.FuncMap{"duration": tracker.FormatDuration}),
		prompt.WithLogger(logger))
}

// fail prints err through the printer and returns it classified for the
// exit code.
func fail(printer *output.Printer, err error) error {
	err = output.Classify(err)
	printer.Error(err)
	return err
}
