package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agency-ledger/internal/store"
)

func TestStoreWrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	s := NewStore(backend, NewRetrier(DefaultPolicy()), SubscribeOptions{})

	path := store.Path{Collection: "agents", ID: "a1"}
	require.NoError(t, s.Write(ctx, path, store.Document{"name": "Sahara Travel"}))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Sahara Travel", doc["name"])

	_, err = s.Get(ctx, store.Path{Collection: "agents", ID: "missing"})
	assert.True(t, IsNotFound(err))
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "agents.get", re.Op)
}

func TestSentinelProbeTreatsMissingAsReachable(t *testing.T) {
	backend := store.NewMemoryStore()
	probe := SentinelProbe(backend, store.Path{Collection: "_health", ID: "probe"})
	assert.NoError(t, probe(context.Background()))

	backend.Close()
	err := probe(context.Background())
	assert.True(t, errors.Is(err, store.ErrClosed))
}

func TestStoreSubscribeFailsFastWhileOffline(t *testing.T) {
	backend := &flakyStore{MemoryStore: store.NewMemoryStore()}
	notifier := &recordingNotifier{}
	s := NewStore(backend, NewRetrier(DefaultPolicy(), WithReachability(fixedReach(false)), WithNotifier(notifier)), SubscribeOptions{})

	called := false
	unsub, err := s.Subscribe(context.Background(), ticketQuery(),
		func([]store.Document) { called = true }, nil)
	require.Error(t, err)
	assert.Nil(t, unsub)
	assert.True(t, errors.Is(err, ErrOffline))
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Zero(t, backend.subscribes.Load())
	assert.False(t, called)

	require.Len(t, notifier.all(), 1)
	assert.Equal(t, "tickets.subscribe", notifier.all()[0].Op)
	assert.True(t, notifier.all()[0].Offline)
}
