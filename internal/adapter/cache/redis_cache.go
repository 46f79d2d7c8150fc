// internal/adapter/cache/redis_cache.go

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

// keyPrefix namespaces every key this service writes
const keyPrefix = "trendscout:v2:"

// RedisCache is a namespaced read-through cache backed by Redis.
// Caching is an optimization, never a correctness dependency: every
// backend failure degrades to a miss or a no-op.
type RedisCache struct {
	client *redis.Client
	ttls   config.CacheConfig
	logger *slog.Logger
}

// NewRedisCache connects to Redis and returns a cache. An empty URL or
// an unreachable backend yields a disabled cache (nil client): Get
// always misses, Set and ClearPattern are no-ops.
func NewRedisCache(cfg config.RedisConfig, ttls config.CacheConfig, logger *slog.Logger) *RedisCache {
	c := &RedisCache{ttls: ttls, logger: logger}

	if cfg.URL == "" {
		logger.Info("redis caching disabled (REDIS_URL not configured)")
		return c
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("invalid redis URL, caching disabled", "error", err)
		return c
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available, caching disabled", "error", err)
		_ = client.Close()
		return c
	}

	c.client = client
	logger.Info("redis cache initialized")
	return c
}

// Enabled reports whether a backend connection is live
func (c *RedisCache) Enabled() bool { return c.client != nil }

// Close releases the backend connection
func (c *RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func cacheKey(namespace, key string) string {
	return keyPrefix + namespace + ":" + key
}

// Get unmarshals the cached payload into dest and reports whether the
// key was present. Backend errors are logged and reported as misses.
func (c *RedisCache) Get(ctx context.Context, namespace, key string, dest any) bool {
	if c.client == nil {
		return false
	}

	data, err := c.client.Get(ctx, cacheKey(namespace, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "namespace", namespace, "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("cache payload unmarshal failed", "namespace", namespace, "key", key, "error", err)
		return false
	}

	return true
}

// Set stores the payload under the namespace's TTL; a zero ttl selects
// the namespace default. Failures are logged and swallowed.
func (c *RedisCache) Set(ctx context.Context, namespace, key string, payload any, ttl time.Duration) {
	if c.client == nil {
		return
	}

	if ttl <= 0 {
		ttl = c.defaultTTL(namespace)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("cache payload marshal failed", "namespace", namespace, "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, cacheKey(namespace, key), data, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "namespace", namespace, "key", key, "error", err)
	}
}

// ClearPattern removes all keys matching the glob (relative to this
// service's prefix) and returns how many were deleted
func (c *RedisCache) ClearPattern(ctx context.Context, pattern string) int {
	if c.client == nil {
		return 0
	}

	var deleted int
	iter := c.client.Scan(ctx, 0, keyPrefix+pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("cache delete failed", "key", iter.Val(), "error", err)
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", "pattern", pattern, "error", err)
	}

	return deleted
}

// Stats returns basic backend statistics for the health endpoint
func (c *RedisCache) Stats(ctx context.Context) map[string]any {
	if c.client == nil {
		return map[string]any{"enabled": false}
	}

	var keys int
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys++
	}

	stats := map[string]any{
		"enabled":    true,
		"total_keys": keys,
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		stats["connected"] = false
	} else {
		stats["connected"] = true
	}

	return stats
}

func (c *RedisCache) defaultTTL(namespace string) time.Duration {
	switch namespace {
	case trend.NSProfile:
		return c.ttls.ProfileTTL
	case trend.NSPosts:
		return c.ttls.PostsTTL
	case trend.NSTrends:
		return c.ttls.TrendsTTL
	case trend.NSAnalysis:
		return c.ttls.AnalysisTTL
	case trend.NSRelevance:
		return c.ttls.RelevanceTTL
	default:
		return 5 * time.Minute
	}
}
