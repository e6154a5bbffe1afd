package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

func TestInMemoryDispatcherIsolatesHandlerFailures(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls int
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return errors.New("log store unavailable")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		panic("boom")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls++
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, Actor: domain.Actor{ID: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAsyncDispatcherDeliversAfterRequestEnds(t *testing.T) {
	d := NewAsyncDispatcher(8, nil)
	var handled atomic.Int32
	d.Subscribe(EventAgentCreated, func(ctx context.Context, _ Event) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		handled.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Publish(ctx, Event{Type: EventAgentCreated}))
	require.NoError(t, d.Publish(ctx, Event{Type: EventAgentCreated}))
	cancel()
	d.Close()

	assert.Equal(t, int32(2), handled.Load())
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventAgentCreated}))
}

func TestAsyncDispatcherDropsWhenFull(t *testing.T) {
	d := NewAsyncDispatcher(1, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var handled atomic.Int32
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		if handled.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
	<-started
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
	close(release)
	d.Close()

	assert.Equal(t, int32(2), handled.Load())
}
