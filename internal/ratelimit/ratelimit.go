package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Actions that carry a per-user limit.
const (
	ActionUploads  = "uploads"
	ActionComments = "comments"
	ActionJoins    = "joins"
)

// takeScript refills the bucket for the elapsed time, then tries to take one
// token. It returns {allowed, tokens_left}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// peekScript computes the refilled token count without taking one.
var peekScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
	end
	return tokens
`)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Duration
}

// TokenBucket is a per-user token bucket kept in Redis. Capacity tokens refill
// at Refill tokens per window.
type TokenBucket struct {
	redis    *redis.Client
	action   string
	capacity int64
	refill   int64
	window   time.Duration
	now      func() time.Time
}

func NewTokenBucket(redisClient *redis.Client, action string, capacity, refillPerMinute int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		action:   action,
		capacity: capacity,
		refill:   refillPerMinute,
		window:   time.Minute,
		now:      time.Now,
	}
}

func (tb *TokenBucket) Action() string { return tb.action }

func (tb *TokenBucket) key(userID string) string {
	return fmt.Sprintf("rate_limit:%s:%s", tb.action, userID)
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()}
}

// Allow takes a token for userID if one is left.
func (tb *TokenBucket) Allow(ctx context.Context, userID string) (Decision, error) {
	res, err := takeScript.Run(ctx, tb.redis, []string{tb.key(userID)}, tb.args()...).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", tb.action, err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected script result %v", tb.action, res)
	}
	allowed, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)

	return Decision{
		Allowed:   allowed == 1,
		Limit:     tb.capacity,
		Remaining: remaining,
		Reset:     tb.window,
	}, nil
}

// Remaining returns how many tokens userID could take right now.
func (tb *TokenBucket) Remaining(ctx context.Context, userID string) (int64, error) {
	res, err := peekScript.Run(ctx, tb.redis, []string{tb.key(userID)}, tb.args()...).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit %s remaining: %w", tb.action, err)
	}

	remaining, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("rate limit %s: unexpected script result %v", tb.action, res)
	}
	return remaining, nil
}

func (tb *TokenBucket) Reset(ctx context.Context, userID string) error {
	return tb.redis.Del(ctx, tb.key(userID)).Err()
}
