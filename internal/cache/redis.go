package cache

import (
	"Shortlytics-Backend/internal/config"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// RedirectCache maps fully-qualified short URLs to destination URLs.
type RedirectCache struct {
	client *redis.Client
	ttl    time.Duration

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// NewClient creates a Redis client from config. The URL may be a redis:// URL or a bare host:port.
func NewClient(cfg config.Redis) *redis.Client {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.URL}
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.OpTimeout > 0 {
		opt.ReadTimeout = cfg.OpTimeout
		opt.WriteTimeout = cfg.OpTimeout
	}
	return redis.NewClient(opt)
}

func New(client *redis.Client, ttl time.Duration) *RedirectCache {
	return &RedirectCache{client: client, ttl: ttl}
}

// TTL returns the default entry lifetime.
func (c *RedirectCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached URL. A missing key is reported as found=false with a nil error.
func (c *RedirectCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return "", false, nil
	}
	if err != nil {
		c.failures.Add(1)
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	c.hits.Add(1)
	return val, true, nil
}

// Set stores url under key. A non-positive ttl falls back to the default.
func (c *RedirectCache) Set(ctx context.Context, key, url string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, key, url, ttl).Err(); err != nil {
		c.failures.Add(1)
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedirectCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedirectCache) Close() error {
	return c.client.Close()
}

func (c *RedirectCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.failures.Load(),
	}
}
