package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts requests in fixed windows aligned to the window size.
// Each window gets its own key, which expires with the window.
type RateLimiter struct {
	client *Client
	now    func() time.Time
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		return false, fmt.Errorf("invalid rate limit window %s", window)
	}
	bucket := r.now().UnixNano() / int64(window)
	count, err := r.client.IncrWithTTL(ctx, fmt.Sprintf("ratelimit:%s:%d", key, bucket), window)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return count <= int64(limit), nil
}
