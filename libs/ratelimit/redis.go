package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a clock-aligned fixed-window limiter shared by every bot replica
// that points at the same Redis.
type Redis struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(rdb *redis.Client, limit int, window time.Duration, prefix string) *Redis {
	if limit <= 0 {
		limit = 30
	}
	if window < time.Millisecond {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{rdb: rdb, limit: limit, window: window, prefix: prefix, now: time.Now}
}

// Allow counts the call in the current window. The counter key expires with
// its window, so idle chats leave nothing behind.
func (rl *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.bucketKey(key, rl.now())
	var count *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, k)
		pipe.PExpire(ctx, k, rl.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return count.Val() <= int64(rl.limit), nil
}

func (rl *Redis) bucketKey(key string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", rl.prefix, key, at.UnixMilli()/rl.window.Milliseconds())
}

// ReadyCheck pings Redis.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
