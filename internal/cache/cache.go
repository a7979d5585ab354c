// Package cache is a Redis cache-aside layer for read-mostly catalog data.
// Redis failures never reach callers: every error degrades to a direct load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "catalog"

// Cache wraps a Redis client. A nil *Cache, or one built with a nil client,
// is a pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Key builds catalog:<kind>:<id>.
func Key(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, id)
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Concurrent misses on the same key share one load. Load errors
// are returned as-is and never cached.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}

	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	// Shared by every caller collapsed onto key; outlives any one request.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := lookup[T](shared, c, key); ok {
			return v, nil
		}
		fresh, err := load(shared)
		if err != nil {
			return fresh, err
		}
		c.store(shared, key, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", "key", key, "err", err)
		}
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("cache entry undecodable, reloading", "key", key, "err", err)
		return v, false
	}
	return v, true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "err", err)
	}
}

// Delete drops keys, e.g. after the catalog is reseeded.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Purge deletes every catalog key and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	if !c.enabled() {
		return 0, nil
	}
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+":*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan catalog keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete catalog keys: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Ping reports Redis reachability. It returns nil when caching is disabled.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool { return c.enabled() }
