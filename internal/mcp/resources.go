package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/tracker"
)

// Resource URIs.
const (
	uriProjects    = "timecamp://projects"
	uriTasks       = "timecamp://tasks"
	uriTimer       = "timecamp://timer"
	uriChanges     = "timecamp://changes"
	uriTimeEntries = "timecamp://time-entries/"
	uriSearch      = "timecamp://search/"
)

// Conditional-read metadata keys.
const (
	metaIfNoneMatch = "if_none_match"
	metaETag        = "etag"
	metaNotModified = "not_modified"
	metaSince       = "since"
)

const jsonMIME = "application/json"

// registerResources adds the read-only resources to the server.
//
// Every read answers with _meta.etag. A client that sends the etag it last
// saw as _meta.if_none_match gets _meta.not_modified and empty contents when
// nothing changed.
func registerResources(server *mcp.Server, svc *tracker.Service) {
	server.AddResource(&mcp.Resource{
		URI:         uriProjects,
		Name:        "projects",
		Description: "All projects, archived included, with task counts.",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		list, err := svc.ProjectList(ctx, true)
		if err != nil {
			return nil, toolError(err)
		}
		return fingerprinted(req, list)
	})

	server.AddResource(&mcp.Resource{
		URI:         uriTasks,
		Name:        "tasks",
		Description: "All tasks with their project names.",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		tasks, err := svc.Tasks(ctx)
		if err != nil {
			return nil, toolError(err)
		}
		return fingerprinted(req, tasks)
	})

	server.AddResource(&mcp.Resource{
		URI:         uriTimer,
		Name:        "timer",
		Description: "The running timer, if any.",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		res, err := svc.TimerStatus(ctx, ifNoneMatch(req))
		if err != nil {
			return nil, toolError(err)
		}
		return loaded(req, res)
	})

	server.AddResource(&mcp.Resource{
		URI:         uriChanges,
		Name:        "changes",
		Description: "Changes made through this server. Send _meta.since (RFC 3339) to get only newer ones.",
		MIMEType:    jsonMIME,
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		since, err := parseSince(metaString(req, metaSince))
		if err != nil {
			return nil, err
		}
		return fingerprinted(req, toChangesOutput(svc.Changes(since)))
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriTimeEntries + "{date}",
		Name:        "time-entries",
		Description: "Time entries for a date (YYYY-MM-DD) grouped by task.",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		date, err := uriParam(req, uriTimeEntries)
		if err != nil {
			return nil, err
		}
		res, err := svc.DailySummary(ctx, date, ifNoneMatch(req))
		if err != nil {
			return nil, toolError(err)
		}
		return loaded(req, res)
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriSearch + "{query}",
		Name:        "search",
		Description: "Fuzzy search over active projects and tasks.",
		MIMEType:    jsonMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		query, err := uriParam(req, uriSearch)
		if err != nil {
			return nil, err
		}
		res, err := svc.Search(ctx, query)
		if err != nil {
			return nil, toolError(err)
		}
		return fingerprinted(req, res)
	})
}

// loaded answers from a cached read, which already resolved the etag.
func loaded[T any](req *mcp.ReadResourceRequest, res cache.Loaded[T]) (*mcp.ReadResourceResult, error) {
	if res.NotModified {
		return notModified(req, res.ETag), nil
	}
	return jsonResult(req, res.Value, res.ETag)
}

// fingerprinted answers a derived read by hashing the value.
func fingerprinted(req *mcp.ReadResourceRequest, value any) (*mcp.ReadResourceResult, error) {
	etag := cache.Fingerprint(value)
	if match := ifNoneMatch(req); match != "" && match == etag {
		return notModified(req, etag), nil
	}
	return jsonResult(req, value, etag)
}

func jsonResult(req *mcp.ReadResourceRequest, value any, etag string) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", req.Params.URI, err)
	}
	return &mcp.ReadResourceResult{
		Meta: mcp.Meta{metaETag: etag},
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: jsonMIME,
			Text:     string(data),
		}},
	}, nil
}

func notModified(req *mcp.ReadResourceRequest, etag string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Meta: mcp.Meta{metaETag: etag, metaNotModified: true},
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: jsonMIME,
		}},
	}
}

func ifNoneMatch(req *mcp.ReadResourceRequest) string {
	return metaString(req, metaIfNoneMatch)
}

func metaString(req *mcp.ReadResourceRequest, key string) string {
	if req == nil || req.Params == nil {
		return ""
	}
	s, _ := req.Params.Meta[key].(string)
	return s
}

// uriParam extracts the unescaped path segment after prefix.
func uriParam(req *mcp.ReadResourceRequest, prefix string) (string, error) {
	raw, ok := strings.CutPrefix(req.Params.URI, prefix)
	if !ok || raw == "" {
		return "", mcp.ResourceNotFoundError(req.Params.URI)
	}
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid resource uri %q: %w", req.Params.URI, err)
	}
	return value, nil
}
