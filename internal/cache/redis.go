package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type RedisCache struct {
	client *redis.Client
	prefix string
	ctx    context.Context
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "project-tracker",
	}
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisCache{
		client: rdb,
		prefix: config.KeyPrefix,
		ctx:    context.Background(),
	}
}

func (r *RedisCache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.SetRaw(key, data, expiration)
}

// SetRaw stores bytes that are already JSON encoded.
func (r *RedisCache) SetRaw(key string, data []byte, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(key string, dest interface{}) error {
	data, err := r.GetRaw(key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func (r *RedisCache) GetRaw(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return data, nil
}

func (r *RedisCache) Delete(key string) error {
	ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
	defer cancel()

	return r.client.Del(ctx, r.key(key)).Err()
}

const deleteBatchSize = 100

// DeletePattern walks the keyspace with SCAN so a large cache never blocks
// the server the way KEYS would. Keys are collected before anything is
// deleted; deleting mid-scan can move the cursor past live keys.
func (r *RedisCache) DeletePattern(pattern string) error {
	ctx, cancel := context.WithTimeout(r.ctx, 10*time.Second)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(pattern), deleteBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys for pattern %s: %w", pattern, err)
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys for pattern %s: %w", pattern, err)
		}
	}
	return nil
}

func (r *RedisCache) Exists(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
	defer cancel()

	result, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

func (r *RedisCache) Health() error {
	ctx, cancel := context.WithTimeout(r.ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()

	return map[string]interface{}{
		"prefix":        r.prefix,
		"pool_hits":     poolStats.Hits,
		"pool_misses":   poolStats.Misses,
		"pool_timeouts": poolStats.Timeouts,
		"pool_total":    poolStats.TotalConns,
		"pool_idle":     poolStats.IdleConns,
		"pool_stale":    poolStats.StaleConns,
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
