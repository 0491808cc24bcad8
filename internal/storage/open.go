package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mandalnilabja/pixelrelay/internal/config"
	"github.com/mandalnilabja/pixelrelay/internal/storage/memory"
	"github.com/mandalnilabja/pixelrelay/internal/storage/redis"
	"github.com/mandalnilabja/pixelrelay/internal/storage/sqlite"
)

// Open builds the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.LogStoreConfig) (*Store, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(backend, cfg.Capacity), nil
}

func openBackend(ctx context.Context, cfg config.LogStoreConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("log store redis: REDIS_URL is required")
		}
		return redis.New(ctx, redis.Options{
			URL:       cfg.RedisURL,
			Password:  cfg.RedisPassword,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	case config.BackendSQLite, "":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown log store backend %q", cfg.Backend)
	}
}
