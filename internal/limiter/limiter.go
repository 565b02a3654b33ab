// Package limiter throttles how many turns a session may run per hour.
// Redis keeps the counters so the limit survives a service restart; without
// a Redis address the limiter degrades to allow-all.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var incrWithTTLScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return c
`)

type TurnLimiter struct {
	redis *redis.Client
	limit int64
}

// New builds a fixed-window limiter. A nil client or non-positive limit
// disables throttling.
func New(rdb *redis.Client, limit int64) *TurnLimiter {
	return &TurnLimiter{redis: rdb, limit: limit}
}

// Allow records one turn for the session and reports whether it is within
// this hour's budget.
func (l *TurnLimiter) Allow(ctx context.Context, sessionID string, now time.Time) (allowed bool, used int64, resetAt time.Time, err error) {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return true, 0, time.Time{}, nil
	}

	windowStart := now.UTC().Truncate(time.Hour)
	windowEnd := windowStart.Add(time.Hour)
	ttl := int64(windowEnd.Sub(now.UTC()).Seconds())
	if ttl < 1 {
		ttl = 1
	}

	key := fmt.Sprintf("sqlchat:ratelimit:%s:%s", sessionID, windowStart.Format("2006010215"))
	res, err := incrWithTTLScript.Run(ctx, l.redis, []string{key}, ttl).Int64()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit script: %w", err)
	}
	return res <= l.limit, res, windowEnd, nil
}
