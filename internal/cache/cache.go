// Package cache provides a short-lived, ETag-aware response cache for values
// fetched from the TimeCamp API.
//
// Entries expire lazily: an expired entry is purged the next time its key is
// read, never by a background sweep. Every stored value carries an ETag that is
// a pure function of its content, so a conditional read can tell a client that
// what it already holds is still current.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies to project/task lists and aggregated summaries.
const DefaultTTL = 300 * time.Second

// TimerTTL applies to live timer status.
const TimerTTL = 60 * time.Second

// UseDefaultTTL asks Set to use the cache's configured default TTL.
const UseDefaultTTL time.Duration = -1

// entry is one cached value. Entries are replaced whole, never mutated.
type entry struct {
	value     any
	expiresAt time.Time
	etag      string
}

// Result is the outcome of a Get.
type Result struct {
	Value       any
	ETag        string
	Found       bool
	NotModified bool
}

// Cache is a keyed TTL store safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	now        func() time.Time
	defaultTTL time.Duration

	// invalidations counts Invalidate and Clear calls; see setIfVersion.
	invalidations uint64
	loads         singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithDefaultTTL overrides DefaultTTL. Negative values are ignored.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl >= 0 {
			c.defaultTTL = ttl
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		now:        time.Now,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultTTL returns the TTL used when Set is given UseDefaultTTL.
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get looks up key. When ifETag is non-empty and matches the live entry's ETag,
// the result is NotModified and carries no value.
func (c *Cache) Get(key, ifETag string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return Result{}
	}
	if !c.now().Before(ent.expiresAt) {
		delete(c.entries, key)
		return Result{}
	}
	if ifETag != "" && ifETag == ent.etag {
		return Result{ETag: ent.etag, Found: true, NotModified: true}
	}
	return Result{Value: ent.value, ETag: ent.etag, Found: true}
}

// Set stores value under key for ttl, replacing any previous entry, and returns
// the value's ETag. A ttl of zero stores an entry that is already expired.
func (c *Cache) Set(key string, value any, ttl time.Duration) string {
	if ttl < 0 {
		ttl = c.defaultTTL
	}
	etag := Fingerprint(value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
		etag:      etag,
	}
	return etag
}

// Invalidate removes key. Missing keys are ignored.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.invalidations++
	c.mu.Unlock()
	c.loads.Forget(key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.invalidations++
}

// Len reports the number of stored entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
