package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/store"
)

const notifyChannel = "documents"

// PostgresStore keeps documents as JSONB rows in the documents table.
// Realtime subscriptions LISTEN on the channel fed by the table trigger.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ store.DocumentStore = (*PostgresStore)(nil)

// NewPostgresStore builds a store over pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Get(ctx context.Context, path store.Path) (store.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		path.Collection, path.ID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(raw)
}

// Query pushes equality filters down as JSONB containment and applies
// the rest of the query in process.
func (s *PostgresStore) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	contains := map[string]any{}
	for _, f := range q.Filters {
		if f.Op == store.OpEq {
			contains[f.Field] = f.Value
		}
	}
	filter, err := json.Marshal(contains)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND data @> $2::jsonb`,
		q.Collection, string(filter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.Apply(docs, q), nil
}

func (s *PostgresStore) Write(ctx context.Context, path store.Path, doc store.Document) error {
	stored := store.Clone(doc)
	if stored == nil {
		stored = store.Document{}
	}
	stored["id"] = path.ID
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data, updated_at)
		 VALUES ($1, $2, $3::jsonb, now())
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		path.Collection, path.ID, string(raw))
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, path store.Path) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		path.Collection, path.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	return nil
}

// Subscribe holds a dedicated connection for LISTEN and re-runs the query
// whenever the collection changes. Any connection failure ends the
// subscription through onError.
func (s *PostgresStore) Subscribe(ctx context.Context, q store.Query, onData func([]store.Document), onError func(error)) (store.Unsubscribe, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, err
	}
	initial, err := s.Query(ctx, q)
	if err != nil {
		conn.Release()
		return nil, err
	}

	onData(initial)

	listenCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() != nil {
					// Unlisten on a fresh context so the connection returns clean.
					_, _ = conn.Exec(context.Background(), "UNLISTEN "+notifyChannel)
					return
				}
				s.logger.Warn("postgres subscription lost", zap.String("collection", q.Collection), zap.Error(err))
				conn.Conn().Close(context.Background())
				onError(err)
				return
			}
			if !relevant(n, q.Collection) {
				continue
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

	// The listener releases the connection itself, so cancelling is safe
	// from inside a callback.
	return store.Unsubscribe(cancel), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func relevant(n *pgconn.Notification, collection string) bool {
	return n != nil && n.Channel == notifyChannel && n.Payload == collection
}

func decodeRow(raw []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
