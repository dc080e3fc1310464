// Package changelog keeps a bounded, in-memory record of state changes made
// through the server (timers started or stopped, entries created).
//
// MCP resources are pull-based, so clients poll the log with the timestamp of
// the last record they saw instead of receiving push notifications. The log
// is advisory and is never persisted.
package changelog

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit is the number of records retained when no limit is configured.
const DefaultLimit = 100

// Change types recorded by the tracker.
const (
	TimerStarted     = "timer_started"
	TimerStopped     = "timer_stopped"
	TimeEntryCreated = "time_entry_created"
)

// Record is one state change.
type Record struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
}

// Log is an append-only ring of the most recent records. It is safe for
// concurrent use.
type Log struct {
	mu      sync.Mutex
	records []Record
	limit   int
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithLimit sets how many records are retained. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		limit: DefaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends a change stamped with the current time and drops the oldest
// records beyond the limit. Timestamps strictly increase in log order, even
// when the wall clock stalls or steps backwards, so a record's timestamp is a
// cursor that skips nothing recorded after it.
func (l *Log) Record(changeType string, details map[string]any) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	stamp := l.now()
	if n := len(l.records); n > 0 && !stamp.After(l.records[n-1].Timestamp) {
		stamp = l.records[n-1].Timestamp.Add(time.Nanosecond)
	}

	rec := Record{
		ID:        uuid.New().String(),
		Type:      changeType,
		Timestamp: stamp,
		Details:   maps.Clone(details),
	}
	if rec.Details == nil {
		rec.Details = map[string]any{}
	}

	l.records = append(l.records, rec)
	if overflow := len(l.records) - l.limit; overflow > 0 {
		// Copy so the dropped prefix can be collected.
		l.records = append([]Record(nil), l.records[overflow:]...)
	}
	return rec
}

// Since returns, oldest first, the records with a timestamp strictly after
// since. A zero since returns every retained record.
func (l *Log) Since(since time.Time) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0, len(l.records))
	for _, rec := range l.records {
		if since.IsZero() || rec.Timestamp.After(since) {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every retained record, oldest first.
func (l *Log) All() []Record {
	return l.Since(time.Time{})
}

// Len reports how many records are retained.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Limit reports the retention bound.
func (l *Log) Limit() int {
	return l.limit
}

// Clear drops every record.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}
