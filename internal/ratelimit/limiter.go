package ratelimit

import (
	"context"

	"github.com/rs/zerolog"
)

// Limiter decides whether one more request under key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RedisLimiter limits per key. Redis failures let the request through.
type RedisLimiter struct {
	bucket *RedisBucket
	logger zerolog.Logger
}

func NewRedisLimiter(bucket *RedisBucket, logger zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{bucket: bucket, logger: logger}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	ok, err := l.bucket.Allow(ctx, key)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, request allowed")
		return true
	}
	return ok
}
