package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

var ErrUnexpectedReply = errors.New("ratelimit: unexpected reply from redis")

// RedisLimiter counts requests per fixed window in Redis, so every console
// instance shares the same budget.
type RedisLimiter struct {
	Client   redis.Scripter
	Limit    int
	Window   time.Duration
	Prefix   string
	Timeout  time.Duration
	Fallback Limiter
}

func NewRedis(client redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		Client:   client,
		Limit:    limit,
		Window:   window,
		Prefix:   "console:rl:",
		Timeout:  2 * time.Second,
		Fallback: NewMemory(limit, window),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	decision, err := l.allow(ctx, key)
	if err == nil {
		return decision, nil
	}
	if l.Fallback == nil {
		return Decision{}, err
	}

	logrus.WithError(err).WithField("key", key).Warn("Rate limit service unavailable, using local limiter")
	return l.Fallback.Allow(ctx, key)
}

func (l *RedisLimiter) allow(ctx context.Context, key string) (Decision, error) {
	if l.Client == nil {
		return Decision{}, errors.New("ratelimit: redis client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return Decision{}, ErrUnexpectedReply
	}
	count, ok := vals[0].(int64)
	if !ok {
		return Decision{}, ErrUnexpectedReply
	}
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.Window.Milliseconds()
	}

	remaining := l.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   int(count) <= l.Limit,
		Limit:     l.Limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}
