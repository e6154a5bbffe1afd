package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/i18n"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/store"
)

func TestStartEventSubscribersWritesAuditRecords(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	logs := repository.NewLogRepository(mem)

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	subscriber := audit.NewSubscriber(audit.NewBuilder(i18n.New("en")), audit.NewDirectSink(logs), zap.NewNop())
	StartEventSubscribers(dispatcher, subscriber, nil)

	actor := domain.Actor{ID: "u-admin", Name: "Layla", Role: domain.RoleAdmin}
	agent := domain.Agent{ID: "a-nile", Name: "Nile Tours"}
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventAgentCreated, actor,
		time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), events.AgentCreatedPayload{Agent: agent})))

	entries, err := logs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionAgentCreated, entries[0].Action)
	assert.Equal(t, "a-nile", entries[0].TargetID)
}

func TestStartEventSubscribersToleratesMissingParts(t *testing.T) {
	assert.NotPanics(t, func() {
		StartEventSubscribers(nil, nil, nil)
		StartEventSubscribers(events.NewInMemoryDispatcher(zap.NewNop()), nil, nil)
	})
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.RedisConfig{Addr: "cache:6379", Password: "pw", DB: 2})
	assert.Equal(t, "cache:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}
