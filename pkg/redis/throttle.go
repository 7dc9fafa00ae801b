package redis

import (
	"context"
	"fmt"
	"time"
)

// Throttle enforces a minimum interval between accepted events per key.
// Used to cap partner location writes server-side.
type Throttle struct {
	client   *Client
	interval time.Duration
}

func NewThrottle(client *Client, interval time.Duration) *Throttle {
	return &Throttle{client: client, interval: interval}
}

// Try reports true when the key has not fired within the interval. The
// SETNX marker doubles as the window.
func (t *Throttle) Try(ctx context.Context, key string) (bool, error) {
	ok, err := t.client.rdb.SetNX(ctx, fmt.Sprintf("throttle:%s", key), 1, t.interval).Result()
	if err != nil {
		return false, fmt.Errorf("throttle: %w", err)
	}
	return ok, nil
}
