package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/fairu-api/pkg/errors"
)

// CacheRepository stores JSON encoded listing payloads in Redis.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository constructs a Redis backed cache repository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern removes cached entries matching the glob pattern.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// MemoryCacheRepository keeps JSON encoded payloads in process. It is used
// when Redis is disabled.
type MemoryCacheRepository struct {
	cache *ttlcache.Cache
}

// NewMemoryCacheRepository wraps a ttlcache instance.
func NewMemoryCacheRepository(cache *ttlcache.Cache) *MemoryCacheRepository {
	return &MemoryCacheRepository{cache: cache}
}

// Get retrieves and unmarshals the cached value into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	value, err := r.cache.Get(key)
	if err != nil {
		if errors.Is(err, ttlcache.ErrNotFound) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("memory get %s: %w", key, err)
	}

	raw, ok := value.([]byte)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.cache.SetWithTTL(key, payload, ttl); err != nil {
		return fmt.Errorf("memory set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern removes entries whose key matches the glob pattern.
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for _, key := range r.cache.GetKeys() {
		matched, err := matchKey(pattern, key)
		if err != nil {
			return fmt.Errorf("memory pattern %s: %w", pattern, err)
		}
		if !matched {
			continue
		}
		if err := r.cache.Remove(key); err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
			return fmt.Errorf("memory delete %s: %w", key, err)
		}
	}
	return nil
}

// matchKey follows Redis SCAN semantics for a trailing wildcard, where "*"
// also matches "/", and falls back to path.Match otherwise.
func matchKey(pattern, key string) (bool, error) {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok && !strings.ContainsAny(prefix, `*?[\`) {
		return strings.HasPrefix(key, prefix), nil
	}
	return path.Match(pattern, key)
}

// Close stops the expiry goroutine of the cache.
func (r *MemoryCacheRepository) Close() error {
	return r.cache.Close()
}
