package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/store"
)

// RedisStore keeps each document as a JSON string with one id set per
// collection; writes publish on a per-collection channel for realtime
// subscribers.
type RedisStore struct {
	client *redis.Client
	keys   Keyspace
	logger *zap.Logger
}

var _ store.DocumentStore = (*RedisStore)(nil)

// NewRedisStore builds a store over client with keys under keys.
func NewRedisStore(client *redis.Client, keys Keyspace, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, keys: keys, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, path store.Path) (store.Document, error) {
	raw, err := s.client.Get(ctx, s.keys.Doc(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(raw)
}

func (s *RedisStore) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	ids, err := s.client.SMembers(ctx, s.keys.Index(q.Collection)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.Doc(store.Path{Collection: q.Collection, ID: id})
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	docs := make([]store.Document, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry outlived its document.
			continue
		}
		doc, err := decodeRow([]byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return store.Apply(docs, q), nil
}

func (s *RedisStore) Write(ctx context.Context, path store.Path, doc store.Document) error {
	stored := store.Clone(doc)
	if stored == nil {
		stored = store.Document{}
	}
	stored["id"] = path.ID
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keys.Doc(path), raw, 0)
		pipe.SAdd(ctx, s.keys.Index(path.Collection), path.ID)
		pipe.Publish(ctx, s.keys.Changes(path.Collection), path.ID)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, path store.Path) error {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.keys.Doc(path))
		pipe.SRem(ctx, s.keys.Index(path.Collection), path.ID)
		pipe.Publish(ctx, s.keys.Changes(path.Collection), path.ID)
		return nil
	})
	if err != nil {
		return err
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	return nil
}

// Subscribe listens on the collection channel and re-runs the query on
// every change.
func (s *RedisStore) Subscribe(ctx context.Context, q store.Query, onData func([]store.Document), onError func(error)) (store.Unsubscribe, error) {
	pubsub := s.client.Subscribe(ctx, s.keys.Changes(q.Collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	initial, err := s.Query(ctx, q)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	onData(initial)

	listenCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer pubsub.Close()
		for {
			if _, err := pubsub.ReceiveMessage(listenCtx); err != nil {
				if listenCtx.Err() != nil {
					return
				}
				s.logger.Warn("redis subscription lost", zap.String("collection", q.Collection), zap.Error(err))
				onError(err)
				return
			}
			docs, err := s.Query(listenCtx, q)
			if listenCtx.Err() != nil {
				return
			}
			if err != nil {
				onError(err)
				return
			}
			onData(docs)
		}
	}()
	return store.Unsubscribe(cancel), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
