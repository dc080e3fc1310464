package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	timecampmcp "github.com/gorewood/timecamp-mcp/internal/mcp"
	"github.com/gorewood/timecamp-mcp/internal/output"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio, or streamable HTTP with --http)",
		Long: `Run timecamp-mcp as a Model Context Protocol (MCP) server.

By default the server speaks over stdio. Configure it in your agent's MCP
settings:
  {
    "mcpServers": {
      "timecamp": {
        "command": "timecamp-mcp",
        "args": ["serve"],
        "env": {"TIMECAMP_API_TOKEN": "..."}
      }
    }
  }

With --http the server listens on the given address and serves the
streamable HTTP transport at /mcp, plus /healthz for probes.

Tools: start_timer, stop_timer, create_time_entry, get_timer_status,
list_projects, search_projects_and_tasks, get_daily_summary, get_changes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, cmd.ErrOrStderr())
			if err != nil {
				newPrinter(cmd).Error(err)
				return err
			}
			server := timecampmcp.NewServer(buildVersion(), a.svc, a.prompts)
			if httpAddr == "" {
				a.logger.Info("serving MCP over stdio")
				return server.Run(cmd.Context(), &mcp.StdioTransport{})
			}
			return serveHTTP(cmd.Context(), a.logger, httpAddr, newHTTPHandler(server))
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "Serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	return cmd
}

// newHTTPHandler routes the MCP endpoint and a health probe.
func newHTTPHandler(server *mcp.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	return r
}

// serveHTTP runs handler on addr until ctx is cancelled, then drains.
func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return output.NewSystemErrorWithCause("http server: "+err.Error(), err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return output.NewSystemErrorWithCause("http shutdown: "+err.Error(), err)
	}
	return nil
}
