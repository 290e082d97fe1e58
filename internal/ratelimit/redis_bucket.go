package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 每個 key 一個 bucket，狀態存在 redis，多個實例共用
var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	local elapsedSeconds = (now - lastRefill) / 1000000000
	if elapsedSeconds < 0 then
		elapsedSeconds = 0
	end
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

// RedisBucket keeps one token bucket per key in redis.
type RedisBucket struct {
	Config
	client redis.Scripter
	now    func() time.Time
}

func NewRedisBucket(client redis.Scripter, cfg Config) *RedisBucket {
	if client == nil {
		panic("RedisBucket dependency client is nil")
	}
	return &RedisBucket{
		Config: cfg.withDefaults(),
		client: client,
		now:    time.Now,
	}
}

func generateBucketKey(prefix, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", prefix, key)
}

// Allow takes one token from key's bucket.
func (r *RedisBucket) Allow(ctx context.Context, key string) (bool, error) {
	// 閒置到可以補滿時 key 就可以過期
	ttl := r.Capacity/r.RatePS + 60

	result, err := bucketScript.Run(
		ctx,
		r.client,
		[]string{generateBucketKey(r.Key, key)},
		r.Capacity,
		r.RatePS,
		r.now().UnixNano(),
		ttl,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return result == 1, nil
}
