package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// NewClient opens a Redis client. The connection is established lazily.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// FeedCache wraps a domain.FeedSource and keeps the last body in Redis for a TTL.
//
// Key schema:
//
//	quakemap:feed:{sha256(url)[:8]} - raw feed body
//
// Redis failures never fail a fetch; the cache falls through to the inner source.
type FeedCache struct {
	inner   domain.FeedSource
	rdb     *redis.Client
	key     string
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFeedCache creates a cache decorator around a feed source.
func NewFeedCache(inner domain.FeedSource, rdb *redis.Client, feedURL string, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *FeedCache {
	return &FeedCache{
		inner:   inner,
		rdb:     rdb,
		key:     feedKey(feedURL),
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func feedKey(feedURL string) string {
	sum := sha256.Sum256([]byte(feedURL))
	return "quakemap:feed:" + hex.EncodeToString(sum[:8])
}

// FetchFeed returns the cached body when present, otherwise fetches and stores it.
func (c *FeedCache) FetchFeed(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		return data, nil
	case errors.Is(err, redis.Nil):
		c.metrics.FeedCache.WithLabelValues("miss").Inc()
	default:
		c.metrics.FeedCache.WithLabelValues("error").Inc()
		c.logger.Warn("feed cache read failed", "key", c.key, "error", err)
	}

	body, err := c.inner.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.rdb.Set(ctx, c.key, body, c.ttl).Err(); err != nil {
		c.logger.Warn("feed cache write failed", "key", c.key, "error", err)
	}
	return body, nil
}

// Ping reports whether Redis is reachable.
func (c *FeedCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
