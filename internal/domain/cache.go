package domain

import (
	"context"
	"time"
)

// LinkCache is the fast-path lookup layer in front of the repository.
// It is a pure key-value contract keyed by slug; entries are idempotent
// projections of the same store record, so concurrent population races
// resolve as last write wins.
type LinkCache interface {
	// Get returns the cached entry for a slug, or (nil, nil) on miss.
	Get(ctx context.Context, slug string) (*CacheEntry, error)

	// Set stores an entry with the given TTL.
	Set(ctx context.Context, entry CacheEntry, ttl time.Duration) error

	// Invalidate removes the entry for a slug.
	Invalidate(ctx context.Context, slug string) error

	// Ping checks if the cache is available.
	Ping(ctx context.Context) error
}
