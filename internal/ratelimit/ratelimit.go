// Package ratelimit throttles Telegram updates per user.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another event for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// counter is the subset of the Redis client used by RedisLimiter.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisLimiter is a fixed-window limiter backed by Redis INCR and EXPIRE NX
// (Redis 7+).
type RedisLimiter struct {
	client counter
	limit  int
	window time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter allows limit events per window for each key.
func NewRedisLimiter(client counter, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow increments the key's counter. The window TTL is armed on every hit
// with NX, so a key whose first EXPIRE was lost still expires.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if err := l.client.ExpireNX(ctx, key, l.window).Err(); err != nil {
		return false, fmt.Errorf("failed to set rate limit window: %w", err)
	}

	return count <= int64(l.limit), nil
}

// UserKey returns the limiter key for a Telegram user.
func UserKey(userID int64) string {
	return fmt.Sprintf("cashpilot:rate_limit:%d", userID)
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return client, nil
}
