package persistence

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/config"
)

// Postgres owns the pgx pool behind the postgres document store.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres opens and pings a pool for cfg.DSN.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	p := &Postgres{Pool: pool}
	logger.Info("connected to postgres",
		zap.String("addr", p.Addr()),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return p, nil
}

// poolConfig parses the DSN and applies the pool limits that are set.
// The store holds one connection per live subscription for LISTEN, so
// MaxConns bounds the number of concurrent feeds as well.
func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	return poolCfg, nil
}

// Addr is the host:port the network watcher dials.
func (p *Postgres) Addr() string {
	conn := p.Pool.Config().ConnConfig
	return net.JoinHostPort(conn.Host, strconv.Itoa(int(conn.Port)))
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
