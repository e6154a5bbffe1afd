package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agency-ledger/internal/store"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, NewKeyspace("test"), nil), mr
}

func TestRedisStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	path := store.Path{Collection: "agents", ID: "a1"}
	require.NoError(t, s.Write(ctx, path, store.Document{"name": "Nile Tours", "balance": 500.0}))
	assert.True(t, mr.Exists("test:doc:agents:a1"))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Nile Tours", doc["name"])
	assert.Equal(t, "a1", doc["id"])

	require.NoError(t, s.Delete(ctx, path))
	_, err = s.Get(ctx, path)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, path), store.ErrNotFound)
}

func TestRedisStoreQueryFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	for id, doc := range map[string]store.Document{
		"t1": {"agentId": "a1", "amountDue": 100.0},
		"t2": {"agentId": "a2", "amountDue": 50.0},
		"t3": {"agentId": "a1", "amountDue": 75.0},
	} {
		require.NoError(t, s.Write(ctx, store.Path{Collection: "tickets", ID: id}, doc))
	}

	docs, err := s.Query(ctx, store.Query{Collection: "tickets"}.
		Where("agentId", store.OpEq, "a1").
		Sorted("amountDue", false))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "t3", docs[0]["id"])
	assert.Equal(t, "t1", docs[1]["id"])
}

func TestRedisStoreSubscribeDeliversChanges(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	var (
		mu    sync.Mutex
		sizes []int
	)
	unsub, err := s.Subscribe(ctx, store.Query{Collection: "logs"},
		func(docs []store.Document) {
			mu.Lock()
			defer mu.Unlock()
			sizes = append(sizes, len(docs))
		},
		func(err error) { t.Errorf("unexpected subscription error: %v", err) })
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, s.Write(ctx, store.Path{Collection: "logs", ID: "l1"}, store.Document{"action": "ticket_created"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sizes) == 2 && sizes[1] == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisStorePing(t *testing.T) {
	s, _ := newTestRedisStore(t)
	require.NoError(t, s.Ping(context.Background()))
	_ = s.client.Close()
	assert.Error(t, s.Ping(context.Background()))
}
