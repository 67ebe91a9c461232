package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Srinathnulidonda/Savlinks/internal/domain"
)

type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisCache) Get(ctx context.Context, slug string) (*domain.CacheEntry, error) {
	key := c.buildKey(slug)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Cache miss is not an error, just return nil
			return nil, nil
		}
		c.logger.Error("Failed to get from cache", "key", key, "error", err)
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		c.logger.Error("Failed to unmarshal cached entry", "key", key, "error", err)
		return nil, fmt.Errorf("failed to unmarshal cached entry: %w", err)
	}

	return &entry, nil
}

func (c *RedisCache) Set(ctx context.Context, entry domain.CacheEntry, ttl time.Duration) error {
	key := c.buildKey(entry.Slug)

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("Failed to marshal entry for cache", "slug", entry.Slug, "error", err)
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set cache", "key", key, "error", err)
		return fmt.Errorf("cache set failed: %w", err)
	}

	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, slug string) error {
	key := c.buildKey(slug)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Failed to delete from cache", "key", key, "error", err)
		return fmt.Errorf("cache delete failed: %w", err)
	}

	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("Failed to ping Redis", "error", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) buildKey(slug string) string {
	return fmt.Sprintf("link:%s", slug)
}
