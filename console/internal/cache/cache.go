// Package cache keeps the last-known poller feed values in Redis so a
// restarted console can show figures before its first poll completes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "spotconsole:feed:"

// DefaultTTL bounds how old a seeded value may be.
const DefaultTTL = 15 * time.Minute

// Conn is the part of a Redis client the cache uses. Any
// redis.UniversalClient satisfies it.
type Conn interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Cache stores JSON feed values under a namespace.
type Cache struct {
	client    Conn
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// Options configures a Cache.
type Options struct {
	// Namespace separates consoles pointed at different backends
	Namespace string
	TTL       time.Duration
	Logger    *slog.Logger
}

// Open connects to Redis at redisURL and verifies the connection.
func Open(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rc := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return New(rc, opts), nil
}

// New wraps an existing Redis connection.
func New(rc Conn, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		client:    rc,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
		logger:    opts.Logger.With("component", "cache"),
	}
}

func (c *Cache) key(feed string) string {
	if c.namespace == "" {
		return keyPrefix + feed
	}
	return keyPrefix + c.namespace + ":" + feed
}

// Load reads the cached value of feed into v. It reports false on a miss.
func (c *Cache) Load(ctx context.Context, feed string, v any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(feed)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", feed, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", feed, err)
	}
	return true, nil
}

// Store writes v as the latest value of feed.
func (c *Cache) Store(ctx context.Context, feed string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", feed, err)
	}
	if err := c.client.Set(ctx, c.key(feed), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write %s: %w", feed, err)
	}
	c.logger.Debug("feed cached", "feed", feed, "bytes", len(data))
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
