package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills capacity tokens per interval and takes one token per call.
// It returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RedisTokenBucket shares one bucket per key across every API instance.
type RedisTokenBucket struct {
	rdb      redis.Scripter
	prefix   string
	capacity int
	interval time.Duration
	now      func() time.Time
}

// NewRedisTokenBucket allows capacity requests per window, refilled in full each window.
func NewRedisTokenBucket(rdb redis.Scripter, prefix string, capacity int, window time.Duration) *RedisTokenBucket {
	return &RedisTokenBucket{
		rdb:      rdb,
		prefix:   prefix,
		capacity: capacity,
		interval: window,
		now:      time.Now,
	}
}

func (b *RedisTokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	ttl := int64(max(2*b.interval, time.Second) / time.Second)
	args := []any{
		b.now().UnixMilli(),
		b.capacity,
		b.capacity,
		b.interval.Milliseconds(),
		ttl,
	}

	vals, err := tokenBucketScript.Run(ctx, b.rdb, []string{b.prefix + ":" + key}, args...).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected result %v", vals)
	}

	return Decision{
		Allowed:    asInt64(vals[0]) == 1,
		Limit:      b.capacity,
		Remaining:  int(asInt64(vals[1])),
		RetryAfter: time.Duration(asInt64(vals[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}
