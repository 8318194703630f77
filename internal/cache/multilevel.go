package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is what the service layer sees: a two-level lookup that works with
// or without redis behind it.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Stats() map[string]interface{}
	Close() error
}

type MultiLevelCache struct {
	l1 *MemoryCache
	l2 *RedisCache
}

// NewMultiLevelCache builds the two-level cache. A nil redisCache leaves
// only the in-process level, which is how tests and redis-less deployments
// run.
func NewMultiLevelCache(redisCache *RedisCache) *MultiLevelCache {
	return &MultiLevelCache{
		l1: NewMemoryCache(),
		l2: redisCache,
	}
}

const l1PromotionTTL = 5 * time.Minute

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.l1.Set(key, value, ttl)

	if c.l2 != nil {
		return c.l2.Set(ctx, key, value, ttl)
	}
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if value, found := c.l1.Get(key); found {
		return copyValue(value, dest)
	}

	if c.l2 != nil {
		err := c.l2.Get(ctx, key, dest)
		if err == nil {
			// Promote a detached copy; storing dest itself would alias a
			// value the caller may mutate after return.
			if data, merr := json.Marshal(dest); merr == nil {
				c.l1.Set(key, json.RawMessage(data), l1PromotionTTL)
			}
		}
		return err
	}

	return ErrCacheMiss
}

func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	c.l1.Delete(key)

	if c.l2 != nil {
		return c.l2.Delete(ctx, key)
	}
	return nil
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	c.l1.DeletePattern(pattern)

	if c.l2 != nil {
		return c.l2.DeletePattern(ctx, pattern)
	}
	return nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1": c.l1.Stats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

// copyValue hands an L1 hit to the caller's destination. JSON round-trip
// keeps the stored value and the destination decoupled.
func copyValue(src, dest interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to marshal cached value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal to destination: %w", err)
	}
	return nil
}

var _ Cache = (*MultiLevelCache)(nil)
