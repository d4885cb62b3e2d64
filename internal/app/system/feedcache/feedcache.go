// Package feedcache caches rendered pages of the public event feed in Redis.
//
// Keys are versioned: every write that changes the feed bumps feed:version,
// which orphans all cached pages at once. Orphans expire on their TTL.
// A nil *Cache (Redis not configured) misses on every Get and ignores writes.
package feedcache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const versionKey = "feed:version"

// Cache is a best-effort JSON cache. Redis errors are logged and treated as misses.
type Cache struct {
	rdb redis.UniversalClient
	ttl time.Duration
	log *zap.Logger
}

// New returns a cache over rdb, or nil when rdb is nil.
func New(rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Cache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, log: logger}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func pageKey(version int64, key string) string {
	return "feed:v" + strconv.FormatInt(version, 10) + ":" + key
}

// Get loads key into dst and reports whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	v, err := c.version(ctx)
	if err != nil {
		c.miss(err, key)
		return false
	}
	raw, err := c.rdb.Get(ctx, pageKey(v, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.FeedCache.WithLabelValues("miss").Inc()
		return false
	}
	if err != nil {
		c.miss(err, key)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.miss(err, key)
		return false
	}
	metrics.FeedCache.WithLabelValues("hit").Inc()
	return true
}

// Set stores v under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("feed cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	ver, err := c.version(ctx)
	if err != nil {
		c.log.Warn("feed cache version read failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, pageKey(ver, key), raw, c.ttl).Err(); err != nil {
		c.log.Warn("feed cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate orphans every cached page.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		c.log.Warn("feed cache invalidate failed", zap.Error(err))
	}
}

func (c *Cache) miss(err error, key string) {
	metrics.FeedCache.WithLabelValues("error").Inc()
	c.log.Warn("feed cache read failed", zap.String("key", key), zap.Error(err))
}
