package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/port"
)

// Cache stores JSON encoded values of T under "<prefix>:<key>".
type Cache[T any] struct {
	client *Client
	prefix string
}

func NewCache[T any](client *Client, prefix string) *Cache[T] {
	return &Cache[T]{client: client, prefix: prefix}
}

func (c *Cache[T]) key(id string) string {
	return c.prefix + ":" + id
}

func (c *Cache[T]) Get(ctx context.Context, id string) (*T, error) {
	data, found, err := c.client.Get(ctx, c.key(id))
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key(id), err)
	}
	if !found {
		return nil, nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", c.key(id), err)
	}
	return &value, nil
}

func (c *Cache[T]) Set(ctx context.Context, id string, value *T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key(id), err)
	}
	if err := c.client.Set(ctx, c.key(id), data, ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key(id), err)
	}
	return nil
}

// SetNX stores value only when id is not cached yet and reports whether it did.
func (c *Cache[T]) SetNX(ctx context.Context, id string, value *T, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", c.key(id), err)
	}
	ok, err := c.client.SetNX(ctx, c.key(id), data, ttl)
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", c.key(id), err)
	}
	return ok, nil
}

func (c *Cache[T]) Del(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key(id), err)
	}
	return nil
}

var _ port.CachePort[struct{}] = (*Cache[struct{}])(nil)
