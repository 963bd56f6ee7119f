// Package cache stores rendered public API responses. Every admin write
// purges it, so entries never outlive the data they were rendered from by
// more than the write that changed it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces every cached response key.
const KeyPrefix = "portfolio-api-cache:"

// Entry is one cached HTTP response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, entry Entry)
	Purge(ctx context.Context)
}

// Noop is used when no Redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*Entry, bool) { return nil, false }
func (Noop) Set(context.Context, string, Entry)         {}
func (Noop) Purge(context.Context)                      {}

// Redis is a Cache backed by go-redis. Failures are logged and treated as
// misses; the cache never fails a request.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// Connect creates a Redis client and verifies connectivity.
func Connect(url string, ttl time.Duration, log *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(rdb, ttl, log), nil
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log.Named("cache")}
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) Get(ctx context.Context, key string) (*Entry, bool) {
	raw, err := c.rdb.Get(ctx, KeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.rdb.Del(ctx, KeyPrefix+key)
		return nil, false
	}
	return &entry, true
}

func (c *Redis) Set(ctx context.Context, key string, entry Entry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, KeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge deletes every cached response.
func (c *Redis) Purge(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, KeyPrefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 200 {
			c.rdb.Del(ctx, keys...)
			keys = keys[:0]
		}
	}
	if len(keys) > 0 {
		c.rdb.Del(ctx, keys...)
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache purge failed", zap.Error(err))
	}
}
