package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"time"
)

type Cache interface {
	Set(key string, value interface{}, ttl time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	DeletePattern(pattern string) error
	Stats() map[string]interface{}
	Health() error
	Close() error
}

// MultiLevelCache keeps an in-process copy of every value in front of an
// optional Redis level. Redis calls go through a circuit breaker; when it is
// open the cache degrades to L1 only.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      *RedisCache
	breaker *CircuitBreaker
	metrics *CacheMetrics
	l1TTL   time.Duration
	bypass  []string
}

// NewMultiLevelCache builds the cache. redisCache may be nil.
func NewMultiLevelCache(redisCache *RedisCache, breaker *CircuitBreaker) *MultiLevelCache {
	if breaker == nil {
		breaker = NewCircuitBreaker(nil)
	}
	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      redisCache,
		breaker: breaker,
		metrics: NewCacheMetrics(),
		l1TTL:   time.Minute,
	}
}

// BypassLocal keeps keys matching any of the glob patterns out of L1 while
// Redis is configured. Such keys are invalidated for every instance at once
// because all of them read the shared level.
func (c *MultiLevelCache) BypassLocal(patterns ...string) *MultiLevelCache {
	c.bypass = append(c.bypass, patterns...)
	return c
}

func (c *MultiLevelCache) sharedOnly(key string) bool {
	if c.l2 == nil {
		return false
	}
	for _, pattern := range c.bypass {
		if ok, _ := path.Match(pattern, key); ok {
			return true
		}
	}
	return false
}

func (c *MultiLevelCache) Metrics() *CacheMetrics {
	return c.metrics
}

func (c *MultiLevelCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if !c.sharedOnly(key) {
		c.l1.Set(key, data, c.localTTL(ttl))
	}
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}
	err = c.breaker.Execute(func() error {
		return c.l2.SetRaw(key, data, ttl)
	})
	if err != nil {
		c.metrics.RecordError()
		return err
	}
	return nil
}

func (c *MultiLevelCache) Get(key string, dest interface{}) error {
	local := !c.sharedOnly(key)
	if local {
		if data, ok := c.l1.Get(key); ok {
			c.metrics.RecordL1Hit()
			return json.Unmarshal(data, dest)
		}
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	var data []byte
	miss := false
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.l2.GetRaw(key)
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		c.metrics.RecordError()
		c.metrics.RecordMiss()
		if !errors.Is(err, ErrCircuitBreakerOpen) {
			log.Printf("Cache L2 get %s failed: %v", key, err)
		}
		return ErrCacheDown
	}
	if miss {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	c.metrics.RecordL2Hit()
	if local {
		c.l1.Set(key, data, c.l1TTL)
	}
	return nil
}

func (c *MultiLevelCache) Delete(key string) error {
	c.l1.Delete(key)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(func() error {
		return c.l2.Delete(key)
	})
}

func (c *MultiLevelCache) DeletePattern(pattern string) error {
	c.l1.DeletePattern(pattern)
	c.metrics.RecordDelete()

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(func() error {
		return c.l2.DeletePattern(pattern)
	})
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":       c.l1.Stats(),
		"metrics":  c.metrics.Snapshot(),
		"hit_rate": c.metrics.HitRate(),
	}

	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
		stats["breaker"] = c.breaker.GetStats()
	}
	return stats
}

func (c *MultiLevelCache) Health() error {
	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Health(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

// localTTL caps how long L1 may serve a value. Without Redis, L1 is the only
// level and keeps the full ttl.
func (c *MultiLevelCache) localTTL(ttl time.Duration) time.Duration {
	if c.l2 == nil || (ttl > 0 && ttl < c.l1TTL) {
		return ttl
	}
	return c.l1TTL
}
