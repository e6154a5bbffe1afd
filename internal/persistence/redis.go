package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// Redis wraps the go-redis client and the keyspace every document key
// and change channel lives under.
type Redis struct {
	Client *redis.Client
	Keys   Keyspace
}

// NewRedis builds the client. An unreachable server is only logged; the
// resilient store wrapper retries once it comes up.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client, Keys: NewKeyspace(cfg.KeyPrefix)}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Keyspace namespaces the redis keys of one deployment.
type Keyspace struct {
	prefix string
}

// NewKeyspace falls back to "ledger" for an empty prefix.
func NewKeyspace(prefix string) Keyspace {
	if prefix == "" {
		prefix = "ledger"
	}
	return Keyspace{prefix: prefix}
}

// Doc is the key holding one document's JSON.
func (k Keyspace) Doc(path store.Path) string {
	return fmt.Sprintf("%s:doc:%s:%s", k.prefix, path.Collection, path.ID)
}

// Index is the set of ids in a collection.
func (k Keyspace) Index(collection string) string {
	return fmt.Sprintf("%s:idx:%s", k.prefix, collection)
}

// Changes is the pub/sub channel announcing writes to a collection.
func (k Keyspace) Changes(collection string) string {
	return fmt.Sprintf("%s:changes:%s", k.prefix, collection)
}
