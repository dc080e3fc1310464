// Package tracker implements the time-tracking operations exposed over MCP.
//
// A Service composes three collaborators: the TimeCamp gateway, the response
// cache, and the change log. Reads go through the cache; writes go to the
// gateway first and, only once the upstream accepted them, invalidate the
// cache keys they made stale and append to the change log. Values returned
// from cached reads are shared and must not be modified by callers.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorewood/timecamp-mcp/internal/cache"
	"github.com/gorewood/timecamp-mcp/internal/changelog"
	"github.com/gorewood/timecamp-mcp/internal/timecamp"
)

// Gateway is the subset of the TimeCamp API the tracker needs.
// *timecamp.Client implements it.
type Gateway interface {
	Projects(ctx context.Context) ([]timecamp.Project, error)
	Tasks(ctx context.Context) ([]timecamp.Task, error)
	RunningTimer(ctx context.Context) (*timecamp.Timer, error)
	StartTimer(ctx context.Context, req timecamp.StartTimerRequest) (int64, error)
	StopTimer(ctx context.Context) error
	CreateTimeEntry(ctx context.Context, entry timecamp.NewTimeEntry) (int64, error)
	TimeEntries(ctx context.Context, from, to string) ([]timecamp.TimeEntry, error)
}

var _ Gateway = (*timecamp.Client)(nil)

// Service runs tracker operations.
type Service struct {
	gateway Gateway
	cache   *cache.Cache
	changes *changelog.Log
	now     func() time.Time
	loc     *time.Location
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the zone that defines calendar days. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires a Service. The cache and change log are owned by the
// caller so they can be shared or inspected.
func NewService(gateway Gateway, responses *cache.Cache, changes *changelog.Log, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		cache:   responses,
		changes: changes,
		now:     time.Now,
		loc:     time.Local,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the response cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// ChangeLog returns the change log.
func (s *Service) ChangeLog() *changelog.Log {
	return s.changes
}

// clock returns the current time in the service's zone.
func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current calendar date (YYYY-MM-DD).
func (s *Service) Today() string {
	return s.clock().Format(dateLayout)
}

// invalidate drops keys from the cache.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		s.cache.Invalidate(key)
	}
	s.logger.DebugContext(ctx, "cache invalidated", slog.Any("keys", keys))
}

// Changes returns the change records after since (all when since is zero).
// The feed timestamp is the next cursor: the newest returned record's
// timestamp, or since itself when nothing is newer.
func (s *Service) Changes(since time.Time) ChangeFeed {
	records := s.changes.Since(since)
	if records == nil {
		records = []changelog.Record{}
	}
	cursor := since
	if n := len(records); n > 0 {
		cursor = records[n-1].Timestamp
	}
	return ChangeFeed{
		Changes:   records,
		Timestamp: cursor,
	}
}
