package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loaded is the outcome of a read-through lookup.
type Loaded[T any] struct {
	Value       T
	ETag        string
	NotModified bool
}

// FetchFunc produces a fresh value for a missing key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Load returns the cached value for key, calling fetch on a miss.
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch FetchFunc[T]) (T, string, error) {
	res, err := LoadIf(ctx, c, key, "", ttl, fetch)
	return res.Value, res.ETag, err
}

// LoadIf is Load with a conditional read: when ifETag matches the stored ETag
// the result is NotModified and Value is the zero T.
//
// Concurrent misses on the same key share a single fetch. The fetch runs
// detached from any one caller's cancellation, and each caller stops waiting
// when its own ctx is done. A failed fetch stores nothing. A fetch that overlaps an Invalidate or Clear still returns
// its value to the caller but is not stored, so a mutation is never masked by
// a read that started before it.
func LoadIf[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ifETag string,
	ttl time.Duration,
	fetch FetchFunc[T],
) (Loaded[T], error) {
	if res := c.Get(key, ifETag); res.Found {
		if res.NotModified {
			return Loaded[T]{ETag: res.ETag, NotModified: true}, nil
		}
		if value, ok := res.Value.(T); ok {
			return Loaded[T]{Value: value, ETag: res.ETag}, nil
		}
		// A different type under the same key is treated as a miss.
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		version := c.version()
		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		etag, _ := c.setIfVersion(key, value, ttl, version)
		return Loaded[T]{Value: value, ETag: etag}, nil
	})

	var shared singleflight.Result
	select {
	case <-ctx.Done():
		return Loaded[T]{}, ctx.Err()
	case shared = <-ch:
	}
	if shared.Err != nil {
		return Loaded[T]{}, shared.Err
	}

	loaded, ok := shared.Val.(Loaded[T])
	if !ok {
		return Loaded[T]{}, fmt.Errorf("cache key %q loaded as %T", key, shared.Val)
	}
	if ifETag != "" && ifETag == loaded.ETag {
		return Loaded[T]{ETag: loaded.ETag, NotModified: true}, nil
	}
	return loaded, nil
}

// version returns the invalidation counter.
func (c *Cache) version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}

// setIfVersion stores value only if no invalidation happened since version was
// read. The ETag is returned either way.
func (c *Cache) setIfVersion(key string, value any, ttl time.Duration, version uint64) (string, bool) {
	if ttl < 0 {
		ttl = c.defaultTTL
	}
	etag := Fingerprint(value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidations != version {
		return etag, false
	}
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
		etag:      etag,
	}
	return etag, true
}
