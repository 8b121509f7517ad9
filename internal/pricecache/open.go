package pricecache

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-analytics/pkg/config"
	"github.com/wonny/aegis-analytics/pkg/database"
	"github.com/wonny/aegis-analytics/pkg/logger"
	"github.com/wonny/aegis-analytics/pkg/redis"
)

// RedisPrefix namespaces price cache keys in redis
const RedisPrefix = "analytics:prices"

// Open builds the store selected by CACHE_BACKEND
// ⭐ SSOT: 캐시 백엔드 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	var store Store
	var err error

	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		store = NewMemoryStore()

	case config.CacheBackendFile, "":
		store, err = NewFileStore(cfg.Cache.Dir)

	case config.CacheBackendSQLite:
		store, err = NewSQLiteStore(cfg.Cache.SQLitePath)

	case config.CacheBackendRedis:
		var client *redis.Client
		client, err = redis.New(cfg)
		if err == nil {
			var rs *RedisStore
			rs, err = NewRedisStore(client, RedisPrefix)
			if err != nil {
				client.Close()
			} else {
				store = rs
			}
		}

	case config.CacheBackendPostgres:
		var db *database.DB
		db, err = database.New(cfg)
		if err == nil {
			var pg *PostgresStore
			pg, err = NewPostgresStore(ctx, db.Pool)
			if err != nil {
				db.Close()
			} else {
				pg.closeFn = db.Close
				store = pg
			}
		}

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}

	log.WithFields(map[string]interface{}{
		"backend":    cfg.Cache.Backend,
		"cache_days": cfg.Cache.Days,
	}).Debug("Price cache opened")

	return store, nil
}
