package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter keyed by caller identity.
type RateLimiter struct {
	client *Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow increments the caller's window counter and reports whether the
// request is within the limit.
func (r *RateLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	window := time.Now().Unix() / int64(r.window.Seconds())
	key := fmt.Sprintf("rl:%s:%d", identity, window)

	count, err := r.client.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.rdb.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= int64(r.limit), nil
}
