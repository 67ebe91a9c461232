package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

type memoryItem struct {
	entry     domain.CacheEntry
	expiresAt time.Time
}

// MemoryCache is a TTL-aware in-process cache. It backs tests and
// single-instance deployments where Redis is not worth running.
type MemoryCache struct {
	items map[string]memoryItem
	mu    sync.RWMutex
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem)}
}

func (c *MemoryCache) Get(_ context.Context, slug string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	item, ok := c.items[slug]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, slug)
		c.mu.Unlock()
		return nil, nil
	}

	entry := item.entry
	return &entry, nil
}

func (c *MemoryCache) Set(_ context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[entry.Slug] = memoryItem{
		entry:     entry,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, slug)
	return nil
}

func (c *MemoryCache) Ping(_ context.Context) error {
	return nil
}
