package catalog

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/logging"
)

// RedisSpecCache is a Redis-backed spec cache for deployments where several
// instances share one catalog. Expiry is delegated to Redis key TTLs; the
// semantics match the in-memory cache: TTL <= 0 disables caching, and a
// Redis outage degrades to fetching fresh.
type RedisSpecCache struct {
	client    *redis.Client
	catalog   interfaces.Catalog
	ttl       time.Duration
	keyPrefix string
	logger    logging.Logger
}

// RedisOption represents an option for configuring the Redis spec cache
type RedisOption func(*RedisSpecCache)

// WithKeyPrefix sets a custom prefix for Redis keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisSpecCache) {
		r.keyPrefix = prefix
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger logging.Logger) RedisOption {
	return func(r *RedisSpecCache) {
		r.logger = logger
	}
}

// NewRedisSpecCache creates a Redis-backed spec cache wrapping the given catalog
func NewRedisSpecCache(client *redis.Client, catalog interfaces.Catalog, ttl time.Duration, options ...RedisOption) *RedisSpecCache {
	cache := &RedisSpecCache{
		client:    client,
		catalog:   catalog,
		ttl:       ttl,
		keyPrefix: "apitools:spec:",
	}

	for _, option := range options {
		option(cache)
	}

	return cache
}

// Get returns the raw text for (product, specPath), serving it from Redis
// while a fresh copy exists
func (r *RedisSpecCache) Get(ctx context.Context, product, specPath string) (string, error) {
	if r.ttl <= 0 {
		return r.catalog.GetSpecContent(ctx, product, specPath)
	}

	key := r.keyPrefix + product + ":" + specPath

	content, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return content, nil
	}
	if err != redis.Nil && r.logger != nil {
		r.logger.Warn(ctx, "redis read failed, fetching spec from catalog", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	content, err = r.catalog.GetSpecContent(ctx, product, specPath)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, key, content, r.ttl).Err(); err != nil && r.logger != nil {
		r.logger.Warn(ctx, "redis write failed, continuing uncached", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return content, nil
}
