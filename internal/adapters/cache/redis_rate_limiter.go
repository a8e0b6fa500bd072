package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const ratePrefix = keyPrefix + "ratelimit:"

// RedisRateLimiter is a fixed-window counter shared by every API replica.
// The window starts at the first hit for a key and resets when the key expires.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	redisKey := ratePrefix + key + ":" + strconv.FormatInt(int64(window/time.Second), 10)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		ttl = p.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, err
	}
	// A key without TTL is either brand new or lost its expiry; either way the window starts now.
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, err
		}
	}
	return incr.Val() <= int64(limit), nil
}
