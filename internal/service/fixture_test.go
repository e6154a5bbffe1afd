package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/store"
)

var epoch = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func (r *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	r.published = append(r.published, event)
	r.mu.Unlock()
	return r.Dispatcher.Publish(ctx, event)
}

func (r *recordingDispatcher) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingDispatcher) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published[len(r.published)-1]
}

type fixture struct {
	ctx        context.Context
	store      *store.MemoryStore
	clock      *clock.Fake
	dispatcher *recordingDispatcher
	deps       Dependencies
	currencies *CurrencyService

	admin domain.AppUser
	clerk domain.AppUser
	agent domain.Agent
	sar   domain.Currency
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemoryStore()
	f := &fixture{
		ctx:        ctx,
		store:      mem,
		clock:      clock.NewFake(epoch),
		dispatcher: &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(zap.NewNop())},
	}
	f.deps = Dependencies{
		TicketRepo:        repository.NewTicketRepository(mem),
		ServiceTicketRepo: repository.NewServiceTicketRepository(mem),
		AgentRepo:         repository.NewAgentRepository(mem),
		UserRepo:          repository.NewUserRepository(mem),
		CurrencyRepo:      repository.NewCurrencyRepository(mem),
		ServiceRepo:       repository.NewServiceRepository(mem),
		Dispatcher:        f.dispatcher,
		Clock:             f.clock,
		Logger:            zap.NewNop(),
		Ledger:            config.LedgerConfig{DefaultLocale: "en"},
	}
	f.currencies = NewCurrencyService(f.deps)
	require.NoError(t, f.currencies.EnsureBaseCurrency(ctx))

	f.sar = domain.Currency{ID: "SAR", Code: "SAR", Name: "Saudi Riyal", Symbol: "ر.س", ExchangeRate: 3.75, IsActive: true}
	require.NoError(t, f.deps.CurrencyRepo.Save(ctx, &f.sar))

	f.admin = domain.AppUser{ID: "u-admin", Name: "Layla", Role: domain.RoleAdmin, PreferredCurrency: "USD"}
	f.clerk = domain.AppUser{ID: "u-clerk", Name: "Omar", Role: domain.RoleAgent, PreferredCurrency: "SAR"}
	require.NoError(t, f.deps.UserRepo.Save(ctx, &f.admin))
	require.NoError(t, f.deps.UserRepo.Save(ctx, &f.clerk))

	f.agent = domain.Agent{ID: "a-nile", Name: "Nile Tours", Balance: 500, PreferredCurrency: "USD"}
	require.NoError(t, f.deps.AgentRepo.Save(ctx, &f.agent))
	return f
}

// failingAgentSaves reads agents normally but refuses every write.
type failingAgentSaves struct {
	repository.AgentRepository
}

func (failingAgentSaves) Save(context.Context, *domain.Agent) error {
	return errors.New("service unavailable")
}

func (f *fixture) adminActor() domain.Actor { return domain.ActorFromUser(f.admin) }
func (f *fixture) clerkActor() domain.Actor { return domain.ActorFromUser(f.clerk) }

func (f *fixture) agentBalance(t *testing.T) float64 {
	t.Helper()
	agent, err := f.deps.AgentRepo.GetByID(f.ctx, f.agent.ID)
	require.NoError(t, err)
	return agent.Balance
}

func (f *fixture) tickets() TicketService {
	return NewTicketService(f.deps, f.currencies)
}

func fullPayment(paid, due float64, code string) PaymentInput {
	return PaymentInput{PaidAmount: paid, AmountDue: due, Currency: code, PaymentMode: domain.PaymentModeFull}
}

func partialPayment(paid, due, partial float64, code string) PaymentInput {
	return PaymentInput{PaidAmount: paid, AmountDue: due, Currency: code, PaymentMode: domain.PaymentModePartial, PartialAmount: &partial}
}

func float(v float64) *float64 { return &v }
func boolean(v bool) *bool     { return &v }
