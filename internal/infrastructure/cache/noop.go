package cache

import (
	"context"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

// NoOpCache is used when caching is disabled; every lookup is a miss and
// resolution falls through to the repository.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(_ context.Context, _ string) (*domain.CacheEntry, error) {
	return nil, nil
}

func (c *NoOpCache) Set(_ context.Context, _ domain.CacheEntry, _ time.Duration) error {
	return nil
}

func (c *NoOpCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

func (c *NoOpCache) Ping(_ context.Context) error {
	return nil
}
