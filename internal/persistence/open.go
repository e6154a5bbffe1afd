package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// Backend is an opened document store plus the address a network
// watcher should dial to observe its reachability.
type Backend struct {
	Store       store.DocumentStore
	WatchTarget string
	closers     []func()
}

// Close releases every connection opened for the backend.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// OpenStore connects the configured document store driver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &Backend{
			Store:       NewPostgresStore(pg.Pool, logger),
			WatchTarget: pg.Addr(),
			closers:     []func(){pg.Close},
		}, nil
	case config.DriverRedis:
		rdb := NewRedis(ctx, cfg.Redis, logger)
		return &Backend{
			Store:       NewRedisStore(rdb.Client, rdb.Keys, logger),
			WatchTarget: cfg.Redis.Addr,
			closers:     []func(){rdb.Close},
		}, nil
	default:
		mem := store.NewMemoryStore()
		logger.Info("using in-memory document store")
		return &Backend{Store: mem, closers: []func(){mem.Close}}, nil
	}
}
