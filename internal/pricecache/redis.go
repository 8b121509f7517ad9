package pricecache

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-analytics/pkg/redis"
)

// RedisStore keeps entries as JSON values through pkg/redis
type RedisStore struct {
	client *redis.Client
	cache  *redis.Cache
}

// NewRedisStore wraps an enabled redis client
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	if !client.Enabled() {
		return nil, fmt.Errorf("redis cache backend requires REDIS_ENABLED=true")
	}
	return &RedisStore{client: client, cache: redis.NewCache(client, prefix)}, nil
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	var e Entry
	found, err := s.cache.Get(ctx, key.String(), &e)
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return e, found, nil
}

// Put stores without a TTL, freshness is judged from FetchedAt
func (s *RedisStore) Put(ctx context.Context, e Entry) error {
	if err := s.cache.Set(ctx, e.Key.String(), e, 0); err != nil {
		return fmt.Errorf("redis put %s: %w", e.Key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	return s.cache.Delete(ctx, key.String())
}

func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	keys, err := s.cache.Keys(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Info, 0, len(keys))
	for _, raw := range keys {
		key, err := ParseKey(raw)
		if err != nil {
			continue
		}
		e, found, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, e.Info())
		}
	}
	sortInfos(out)
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	return s.cache.Clear(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
