package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed JSON caching under a key prefix
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// FullKey returns the namespaced redis key for key
func (c *Cache) FullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. found is false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.FullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache. ttl 0 keeps it until deleted.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.FullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.FullKey(key)).Err()
}

// Keys lists the un-prefixed keys stored by this cache
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	if !c.client.Enabled() {
		return nil, nil
	}

	head := c.FullKey("")
	var keys []string
	iter := c.client.Redis().Scan(ctx, 0, head+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), head))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cache scan failed: %w", err)
	}
	return keys, nil
}

// Clear removes every key stored by this cache and returns how many were deleted
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.Keys(ctx)
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.FullKey(k)
	}
	n, err := c.client.Redis().Del(ctx, full...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache clear failed: %w", err)
	}
	return int(n), nil
}
