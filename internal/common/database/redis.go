// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"menza-admin/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	return &RedisClient{Client: rdb}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client) *RedisClient {
	return &RedisClient{Client: rdb}
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// TryLock sets key to token if it is absent. It reports false when someone
// else holds the key.
func (c *RedisClient) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := c.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s failed: %w", key, err)
	}
	return ok, nil
}

// Unlock removes key if it still holds token. It reports false when the lock
// had already expired or been taken over.
func (c *RedisClient) Unlock(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.Client, []string{key}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("redis unlock %s failed: %w", key, err)
	}
	return n == 1, nil
}

// GetClient returns the underlying *redis.Client
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
