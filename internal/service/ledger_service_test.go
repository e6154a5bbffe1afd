package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/auth"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

func newCatalogService(t *testing.T, f *fixture, price float64) *domain.Service {
	t.Helper()
	svc, err := NewCatalogService(f.deps, f.currencies).Create(f.ctx, f.adminActor(), ServiceInput{Name: "Visa", BasePrice: price, Currency: "USD"})
	require.NoError(t, err)
	return svc
}

func TestServiceTicketEnforcesServiceFloor(t *testing.T) {
	f := newFixture(t)
	visa := newCatalogService(t, f, 50)
	svc := NewServiceTicketService(f.deps, f.currencies)

	input := CreateServiceTicketInput{
		CreateTicketInput: CreateTicketInput{
			TicketNumber: "ST-1", AgentID: f.agent.ID, PayerUserID: f.clerk.ID,
			PaymentInput: fullPayment(150, 140, "USD"),
		},
		ServiceID: visa.ID,
		Quantity:  3,
	}
	_, err := svc.Create(f.ctx, f.clerkActor(), input)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))
	assert.Equal(t, 500.0, f.agentBalance(t))

	input.AmountDue = 150
	ticket, err := svc.Create(f.ctx, f.clerkActor(), input)
	require.NoError(t, err)
	assert.Equal(t, "Visa", ticket.ServiceName)
	assert.Equal(t, 150.0, ticket.MinimumDue())
	assert.Equal(t, 350.0, f.agentBalance(t))

	_, err = svc.Update(f.ctx, f.clerkActor(), ticket.ID, domain.ServiceTicketPatch{TicketPatch: domain.TicketPatch{AmountDue: float(140)}}, "USD")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))

	_, err = svc.Update(f.ctx, f.clerkActor(), ticket.ID, domain.ServiceTicketPatch{Quantity: intPtr(4)}, "USD")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))

	stored, err := svc.Get(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, stored.AmountDue)
	assert.Equal(t, 3, stored.Quantity)

	updated, err := svc.Update(f.ctx, f.clerkActor(), ticket.ID, domain.ServiceTicketPatch{
		TicketPatch: domain.TicketPatch{AmountDue: float(220)},
		Quantity:    intPtr(4),
	}, "USD")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	changes := f.dispatcher.last().Payload.(events.ServiceTicketUpdatedPayload).Changes
	assert.Len(t, changes, 2)
}

func TestServiceTicketRequiresActiveService(t *testing.T) {
	f := newFixture(t)
	visa := newCatalogService(t, f, 50)
	_, err := NewCatalogService(f.deps, f.currencies).Update(f.ctx, f.adminActor(), visa.ID, ServiceUpdate{IsActive: boolean(false)})
	require.NoError(t, err)

	_, err = NewServiceTicketService(f.deps, f.currencies).Create(f.ctx, f.clerkActor(), CreateServiceTicketInput{
		CreateTicketInput: CreateTicketInput{
			TicketNumber: "ST-1", AgentID: f.agent.ID, PayerUserID: f.clerk.ID,
			PaymentInput: fullPayment(50, 50, "USD"),
		},
		ServiceID: visa.ID,
	})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))
}

func TestServiceTicketLogsHalfWrittenTicket(t *testing.T) {
	f := newFixture(t)
	visa := newCatalogService(t, f, 50)
	f.deps.AgentRepo = failingAgentSaves{AgentRepository: f.deps.AgentRepo}

	_, err := NewServiceTicketService(f.deps, f.currencies).Create(f.ctx, f.clerkActor(), CreateServiceTicketInput{
		CreateTicketInput: CreateTicketInput{
			TicketNumber: "ST-1", AgentID: f.agent.ID, PayerUserID: f.clerk.ID,
			PaymentInput: fullPayment(50, 50, "USD"),
		},
		ServiceID: visa.ID,
	})
	require.Error(t, err)
	assert.Contains(t, errorutil.ToDomainError(err).Details, "ticketId")

	event := f.dispatcher.last()
	assert.Equal(t, events.EventServiceTicketCreated, event.Type)
	assert.True(t, event.Payload.(events.ServiceTicketCreatedPayload).DebitFailed)
}

func TestDeleteServiceTicketReportsReversal(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		f := newFixture(t)
		f.deps.Ledger.ReverseBalanceOnDelete = reverse
		visa := newCatalogService(t, f, 50)
		svc := NewServiceTicketService(f.deps, f.currencies)

		ticket, err := svc.Create(f.ctx, f.clerkActor(), CreateServiceTicketInput{
			CreateTicketInput: CreateTicketInput{
				TicketNumber: "ST-1", AgentID: f.agent.ID, PayerUserID: f.clerk.ID,
				PaymentInput: fullPayment(50, 50, "USD"),
			},
			ServiceID: visa.ID,
		})
		require.NoError(t, err)
		require.NoError(t, svc.Delete(f.ctx, f.clerkActor(), ticket.ID))

		payload := f.dispatcher.last().Payload.(events.ServiceTicketDeletedPayload)
		assert.Equal(t, reverse, payload.BalanceReversed)
		if reverse {
			assert.Equal(t, 500.0, f.agentBalance(t))
		} else {
			assert.Equal(t, 450.0, f.agentBalance(t))
		}
	}
}

func intPtr(v int) *int { return &v }

func TestUserStatsAreDerivedFromTickets(t *testing.T) {
	f := newFixture(t)
	svc := f.tickets()
	inputs := []PaymentInput{
		fullPayment(100, 100, "USD"),
		partialPayment(30, 80, 30, "USD"),
		partialPayment(0, 50, 0, "USD"),
	}
	for _, in := range inputs {
		_, err := svc.Create(f.ctx, f.clerkActor(), CreateTicketInput{
			TicketNumber: "TK", AgentID: f.agent.ID, PayerUserID: f.clerk.ID, PaymentInput: in,
		})
		require.NoError(t, err)
	}

	stats := NewStatsService(f.deps)
	first, err := stats.UserStats(f.ctx, f.clerk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStats{UserID: f.clerk.ID, UnpaidDebt: 100, TotalPaid: 130, TotalDue: 230, TicketCount: 3}, first)

	second, err := stats.UserStats(f.ctx, f.clerk.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	summary, err := stats.AgentSummary(f.ctx, f.agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TicketCount)
	assert.Equal(t, 370.0, summary.Agent.Balance)
	assert.Equal(t, 100.0, summary.OutstandingDebt)

	_, err = stats.UserStats(f.ctx, "nobody")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeNotFound))
}

func TestComputeUserStatsIgnoresPartialOnPaidTickets(t *testing.T) {
	stats := ComputeUserStats("u", []domain.Ticket{{AmountDue: 100, PartialPayment: 40, IsPaid: true}})
	assert.Zero(t, stats.UnpaidDebt)
	assert.Equal(t, 100.0, stats.TotalPaid)
}

func TestUpdateAgentBalance(t *testing.T) {
	f := newFixture(t)
	svc := NewBalanceService(f.deps, f.currencies)

	agent, err := svc.UpdateAgentBalance(f.ctx, f.adminActor(), f.agent.ID, BalanceInput{Op: domain.BalanceOpAdd, Amount: -750, Currency: "SAR"})
	require.NoError(t, err)
	assert.Equal(t, 300.0, agent.Balance)

	agent, err = svc.UpdateAgentBalance(f.ctx, f.adminActor(), f.agent.ID, BalanceInput{Op: domain.BalanceOpSet, Amount: -20, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, -20.0, agent.Balance)

	change := f.dispatcher.last().Payload.(events.AgentBalanceUpdatedPayload).Change
	assert.Equal(t, events.BalanceChange{Op: domain.BalanceOpSet, Amount: -20, InputCurrency: "USD", OldBalance: 300, NewBalance: -20}, change)

	_, err = svc.UpdateAgentBalance(f.ctx, f.clerkActor(), f.agent.ID, BalanceInput{Op: domain.BalanceOpAdd, Amount: 1, Currency: "USD"})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
	_, err = svc.UpdateAgentBalance(f.ctx, f.adminActor(), f.agent.ID, BalanceInput{Op: domain.BalanceOpSubtract, Amount: 1, Currency: "USD"})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))
}

func TestUpdateUserBalance(t *testing.T) {
	f := newFixture(t)
	svc := NewBalanceService(f.deps, f.currencies)

	user, err := svc.UpdateUserBalance(f.ctx, f.adminActor(), f.clerk.ID, BalanceInput{Op: domain.BalanceOpAdd, Amount: 375, Currency: "SAR"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, user.UserBalance)

	user, err = svc.UpdateUserBalance(f.ctx, f.adminActor(), f.clerk.ID, BalanceInput{Op: domain.BalanceOpSubtract, Amount: 130, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, -30.0, user.UserBalance)

	published := len(f.dispatcher.types())
	_, err = svc.UpdateUserBalance(f.ctx, f.adminActor(), f.clerk.ID, BalanceInput{Op: domain.BalanceOpAdd, Amount: -5, Currency: "USD"})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))
	assert.Len(t, f.dispatcher.types(), published)

	stored, err := f.deps.UserRepo.GetByID(f.ctx, f.clerk.ID)
	require.NoError(t, err)
	assert.Equal(t, -30.0, stored.UserBalance)
}

func TestBaseCurrencyIsProtected(t *testing.T) {
	f := newFixture(t)
	svc := f.currencies
	admin := f.adminActor()

	assert.True(t, errorutil.HasCode(svc.Delete(f.ctx, admin, "usd"), errorutil.CodeForbidden))
	_, err := svc.Update(f.ctx, admin, "USD", CurrencyUpdate{IsActive: boolean(false)})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
	_, err = svc.Update(f.ctx, admin, "USD", CurrencyUpdate{ExchangeRate: float(2)})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))

	renamed, err := svc.Update(f.ctx, admin, "USD", CurrencyUpdate{Name: strPtr("Dollar")})
	require.NoError(t, err)
	assert.Equal(t, 1.0, renamed.ExchangeRate)
}

func TestCurrencyLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := f.currencies
	admin := f.adminActor()

	_, err := svc.Create(f.ctx, f.clerkActor(), CurrencyInput{Code: "EUR", Symbol: "€", ExchangeRate: 0.9})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
	_, err = svc.Create(f.ctx, admin, CurrencyInput{Code: "EUR", Symbol: "€", ExchangeRate: 0})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))

	eur, err := svc.Create(f.ctx, admin, CurrencyInput{Code: " eur ", Name: "Euro", Symbol: "€", ExchangeRate: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "EUR", eur.Code)
	_, err = svc.Create(f.ctx, admin, CurrencyInput{Code: "EUR", Symbol: "€", ExchangeRate: 0.9})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeConflict))

	_, err = svc.Update(f.ctx, admin, "EUR", CurrencyUpdate{IsActive: boolean(false)})
	require.NoError(t, err)
	_, err = svc.Lookup(f.ctx, "EUR")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))

	active, err := svc.List(f.ctx, true)
	require.NoError(t, err)
	codes := make([]string, 0, len(active))
	for _, c := range active {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"SAR", "USD"}, codes)

	require.NoError(t, svc.Delete(f.ctx, admin, "EUR"))
	assert.Equal(t, events.EventCurrencyDeleted, f.dispatcher.last().Type)
}

func strPtr(v string) *string { return &v }

func TestEnsureUserCreatesAgentOnFirstSignIn(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.deps, f.currencies)
	identity := domain.Identity{UID: "uid-9", Email: "sara@example.com", DisplayName: "Sara"}

	user, err := users.EnsureUser(f.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, user.Role)
	assert.Equal(t, "USD", user.PreferredCurrency)

	identity.DisplayName = "Sara K."
	again, err := users.EnsureUser(f.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "Sara K.", again.Name)
	assert.Equal(t, []events.EventType{events.EventUserCreated}, f.dispatcher.types())

	_, err = users.UpdateRole(f.ctx, f.clerkActor(), user.ID, domain.RoleAdmin)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
	promoted, err := users.UpdateRole(f.ctx, f.adminActor(), user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	_, err = users.SetPreferredCurrency(f.ctx, f.clerkActor(), user.ID, "SAR")
	assert.True(t, errorutil.HasCode(err, errorutil.CodeForbidden))
	mine, err := users.SetPreferredCurrency(f.ctx, f.clerkActor(), f.clerk.ID, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", mine.PreferredCurrency)
}

func TestSignInIssuesToken(t *testing.T) {
	f := newFixture(t)
	tokens := auth.NewTokenManager("secret", time.Hour)
	svc := NewAuthService(NewUserService(f.deps, f.currencies), tokens)

	session, err := svc.SignIn(f.ctx, domain.Identity{UID: f.admin.ID, DisplayName: "Layla"})
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = svc.SignIn(f.ctx, domain.Identity{})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeValidation))
}

func TestNegativeBalanceAlert(t *testing.T) {
	f := newFixture(t)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	f.deps.Dispatcher = dispatcher

	var alerts []BalanceAlert
	NewNotificationService(dispatcher, f.deps.AgentRepo, zap.NewNop(), config.NotificationConfig{
		WebhookURL:           "http://hooks.local/alerts",
		NegativeBalanceAlert: true,
	}).WithPoster(func(_ context.Context, url string, body any) error {
		assert.Equal(t, "http://hooks.local/alerts", url)
		alerts = append(alerts, body.(BalanceAlert))
		return nil
	}).RegisterHandlers()

	svc := f.tickets()
	_, err := svc.Create(f.ctx, f.clerkActor(), CreateTicketInput{
		TicketNumber: "TK-1", AgentID: f.agent.ID, PayerUserID: f.clerk.ID,
		PaymentInput: fullPayment(400, 400, "USD"),
	})
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, err = svc.Create(f.ctx, f.clerkActor(), CreateTicketInput{
		TicketNumber: "TK-2", AgentID: f.agent.ID, PayerUserID: f.clerk.ID,
		PaymentInput: fullPayment(150, 150, "USD"),
	})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, -50.0, alerts[0].Balance)
	assert.Equal(t, "Nile Tours", alerts[0].AgentName)
}
