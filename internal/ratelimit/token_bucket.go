package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// allowScript refills the bucket from the elapsed server time, then takes a
// token if one is available. Tokens are returned as a string so fractional
// refills survive the Lua to Redis integer conversion.
//
// KEYS[1] bucket hash; ARGV rate per second, burst, ttl ms.
// Returns {allowed, tokens, now_ms}.
const allowScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now
if now > last then
  tokens = math.min(burst, tokens + (now - last) / 1000 * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return {allowed, tostring(tokens), now}
`

var (
	ErrBucketNotConfigured = errors.New("bucket_not_configured")
	ErrBucketKeyEmpty      = errors.New("bucket_key_empty")
	ErrBucketLimits        = errors.New("bucket_rate_and_burst_must_be_positive")
)

// Bucket takes one token from the bucket stored at key.
type Bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error)
}

// RateLimitResult is what the HTTP layer turns into X-RateLimit headers.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// TokenBucket is a Redis-backed Bucket shared by every replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(allowScript)}
}

// Allow never returns a nil result; on error the request counts as denied.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	denied := &RateLimitResult{Limit: burst}
	switch {
	case t == nil || t.client == nil:
		return denied, ErrBucketNotConfigured
	case key == "":
		return denied, ErrBucketKeyEmpty
	case rate <= 0 || burst <= 0:
		return denied, ErrBucketLimits
	}

	ttl := bucketTTL(rate, burst)
	reply, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return denied, err
	}
	if len(reply) != 3 {
		return denied, fmt.Errorf("token bucket: unexpected reply length %d", len(reply))
	}

	allowed, _ := reply[0].(int64)
	nowMs, _ := reply[2].(int64)
	tokens, err := strconv.ParseFloat(fmt.Sprint(reply[1]), 64)
	if err != nil {
		return denied, fmt.Errorf("token bucket: tokens %v: %w", reply[1], err)
	}
	return newResult(allowed == 1, burst, tokens, rate, time.UnixMilli(nowMs)), nil
}

// newResult sets RetryAfter to the time needed to refill up to one token.
func newResult(allowed bool, burst int, tokens, rate float64, at time.Time) *RateLimitResult {
	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     burst,
		Remaining: int(math.Floor(tokens)),
		ResetTime: at,
	}
	if !allowed && rate > 0 && tokens < 1 {
		res.RetryAfter = time.Duration((1 - tokens) / rate * float64(time.Second))
		res.ResetTime = at.Add(res.RetryAfter)
	}
	return res
}

// bucketTTL keeps an idle bucket for twice its full refill time; an expired
// bucket is recreated full, which is the same state.
func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Max(1, math.Ceil(2*float64(burst)/rate))
	return time.Duration(seconds) * time.Second
}
