// Package cache stores ingestion results in Redis. A Disabled cache stands
// in when Redis is not configured.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the key-value surface the pipeline needs.
type Cache interface {
	// Get reports ok=false on a miss; a miss is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// DeleteMatching removes keys matching a glob pattern and returns how
	// many were removed.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	Enabled() bool
}

// RedisCache handles caching and fast state storage.
type RedisCache struct {
	client *redis.Client
}

// Connect parses redisURL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client.
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection.
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Enabled is always true for a Redis cache.
func (rc *RedisCache) Enabled() bool {
	return true
}

// Set stores a key-value pair with TTL.
func (rc *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value by key.
func (rc *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := rc.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Delete removes keys.
func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

// DeleteMatching walks the keyspace with SCAN so large keyspaces do not
// block the server.
func (rc *RedisCache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := rc.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Disabled is the cache used when no backend is configured. Every read
// misses and every write is dropped.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (Disabled) Set(context.Context, string, string, time.Duration) error {
	return nil
}

func (Disabled) DeleteMatching(context.Context, string) (int, error) {
	return 0, nil
}

func (Disabled) Enabled() bool {
	return false
}
