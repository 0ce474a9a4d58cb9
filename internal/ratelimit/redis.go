package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window rate limiter backed by Redis, for deployments with
// more than one server instance. Counters live under keyPrefix and expire with
// the window. Fails open: if Redis is unreachable the request is allowed.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedis allows up to limit requests per key per window.
func NewRedis(client *redis.Client, keyPrefix string, limit int, window time.Duration) *Redis {
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &Redis{client: client, keyPrefix: keyPrefix, limit: limit, window: window}
}

func (r *Redis) Allow(key string) (allowed bool, retryAfterSec int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := r.keyPrefix + ":" + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0
	}

	if incr.Val() <= int64(r.limit) {
		return true, 0
	}

	ttl, err := r.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		return false, 1
	}
	retryAfterSec = int(ttl.Seconds())
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	return false, retryAfterSec
}
