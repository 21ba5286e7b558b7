package cache

import (
	"errors"
	"time"
)

// MultiLevelCache reads through a process-local L1 into a shared redis L2.
// L2 calls go through a circuit breaker, so a dead redis costs one failed
// call per window rather than one per request.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
}

func NewMultiLevelCache(redisCache *RedisCache) *MultiLevelCache {
	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      redisCache,
		breaker: NewCircuitBreaker(nil),
	}
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.l1.Set(key, value, ttl)

	if c.l2 != nil {
		return c.breaker.Execute(func() error {
			return c.l2.Set(key, value, ttl)
		})
	}
	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	if err := c.l1.Get(key, dest); err == nil {
		return nil
	}

	if c.l2 != nil {
		// A plain miss is a healthy answer and must not trip the breaker.
		var missed bool
		err := c.breaker.Execute(func() error {
			err := c.l2.Get(key, dest)
			if errors.Is(err, ErrCacheMiss) {
				missed = true
				return nil
			}
			return err
		})
		if err != nil {
			return err
		}
		if missed {
			return ErrCacheMiss
		}
		// Populate L1 with a short TTL so hot keys stop round-tripping.
		c.l1.Set(key, dest, 5*time.Minute)
		return nil
	}

	return ErrCacheMiss
}

func (c *MultiLevelCache) Delete(key string) error {
	c.l1.Delete(key)

	if c.l2 != nil {
		return c.breaker.Execute(func() error {
			return c.l2.Delete(key)
		})
	}
	return nil
}

func (c *MultiLevelCache) DeletePattern(pattern string) error {
	c.l1.DeletePattern(pattern)

	if c.l2 != nil {
		return c.breaker.Execute(func() error {
			return c.l2.DeletePattern(pattern)
		})
	}
	return nil
}

func (c *MultiLevelCache) Exists(key string) (bool, error) {
	if found, _ := c.l1.Exists(key); found {
		return true, nil
	}

	if c.l2 != nil {
		return c.l2.Exists(key)
	}
	return false, nil
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":      c.l1.Stats(),
		"breaker": c.breaker.GetStats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 != nil {
		return c.l2.Health()
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
