package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/api/http/handlers"
	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/auth"
	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/i18n"
	"github.com/spec-kit/agency-ledger/internal/observability"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/resilience"
	"github.com/spec-kit/agency-ledger/internal/service"
	"github.com/spec-kit/agency-ledger/internal/store"
)

const identitySecret = "bridge-secret"

type harness struct {
	app    *fiber.App
	tokens *auth.TokenManager
	deps   service.Dependencies
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	mem := store.NewMemoryStore()
	t.Cleanup(mem.Close)
	clk := clock.NewFake(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))

	dispatcher := events.NewInMemoryDispatcher(logger)
	deps := service.Dependencies{
		TicketRepo:        repository.NewTicketRepository(mem),
		ServiceTicketRepo: repository.NewServiceTicketRepository(mem),
		AgentRepo:         repository.NewAgentRepository(mem),
		UserRepo:          repository.NewUserRepository(mem),
		CurrencyRepo:      repository.NewCurrencyRepository(mem),
		ServiceRepo:       repository.NewServiceRepository(mem),
		Dispatcher:        dispatcher,
		Clock:             clk,
		Logger:            logger,
		Ledger:            config.LedgerConfig{DefaultLocale: "en"},
	}
	logs := repository.NewLogRepository(mem)
	localizer := i18n.New("en")
	audit.NewSubscriber(audit.NewBuilder(localizer), audit.NewDirectSink(logs), logger).Register(dispatcher)

	currencies := service.NewCurrencyService(deps)
	require.NoError(t, currencies.EnsureBaseCurrency(ctx))
	require.NoError(t, deps.CurrencyRepo.Save(ctx, &domain.Currency{
		ID: "SAR", Code: "SAR", Name: "Saudi Riyal", Symbol: "ر.س", ExchangeRate: 3.75, IsActive: true,
	}))
	require.NoError(t, deps.UserRepo.Save(ctx, &domain.AppUser{ID: "u-admin", Name: "Layla", Role: domain.RoleAdmin, PreferredCurrency: "USD"}))
	require.NoError(t, deps.UserRepo.Save(ctx, &domain.AppUser{ID: "u-clerk", Name: "Omar", Role: domain.RoleAgent, PreferredCurrency: "SAR"}))
	require.NoError(t, deps.AgentRepo.Save(ctx, &domain.Agent{ID: "a-nile", Name: "Nile Tours", Balance: 500, PreferredCurrency: "USD"}))

	metrics := observability.NewMetrics()
	notifications := resilience.NewNotificationCenter(10, localizer, clk, logger)
	connection := resilience.NewConnectionManager(resilience.ConnectionConfig{},
		resilience.SentinelProbe(mem, store.Path{Collection: "_health", ID: "probe"}), clk, logger)
	t.Cleanup(connection.Close)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := service.NewUserService(deps, currencies)
	balances := service.NewBalanceService(deps, currencies)
	stats := service.NewStatsService(deps)
	presenter := handlers.NewPresenter(currencies)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("agency-ledger", "test", config.DriverMemory, mem, connection),
		Auth:           handlers.NewAuthHandler(service.NewAuthService(users, tokens), presenter),
		Currencies:     handlers.NewCurrencyHandler(currencies),
		Catalog:        handlers.NewCatalogHandler(service.NewCatalogService(deps, currencies)),
		Agents:         handlers.NewAgentHandler(service.NewAgentService(deps, currencies), balances, stats, presenter),
		Users:          handlers.NewUserHandler(users, balances, stats, presenter),
		Tickets:        handlers.NewTicketHandler(service.NewTicketService(deps, currencies), presenter),
		ServiceTickets: handlers.NewServiceTicketHandler(service.NewServiceTicketService(deps, currencies), presenter),
		Logs:           handlers.NewLogHandler(logs, nil),
		Connection:     handlers.NewConnectionHandler(connection, notifications, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, deps.UserRepo),
		Identity:       auth.NewIdentityVerifier(identitySecret, ""),
	})
	return &harness{app: app, tokens: tokens, deps: deps}
}

func (h *harness) token(t *testing.T, userID string) string {
	t.Helper()
	user, err := h.deps.UserRepo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	token, _, err := h.tokens.GenerateToken(*user)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, token string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type ticketView struct {
	ID        string `json:"id"`
	AmountDue struct {
		Base    float64 `json:"base"`
		Display string  `json:"display"`
	} `json:"amount_due"`
	IsPaid   bool   `json:"is_paid"`
	IsClosed bool   `json:"is_closed"`
	Status   string `json:"status"`
}

func sarTicket(number string) fiber.Map {
	return fiber.Map{
		"ticket_number": number,
		"agent_id":      "a-nile",
		"paid_amount":   375,
		"amount_due":    375,
		"currency":      "SAR",
		"payment_mode":  "full",
	}
}

func TestSessionRequiresIdentitySecret(t *testing.T) {
	h := newHarness(t)
	identity := fiber.Map{"uid": "u-new", "email": "sara@example.com", "displayName": "Sara"}

	status, env := h.do(t, fiber.MethodPost, "/auth/session", "", identity)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = h.do(t, fiber.MethodPost, "/auth/session", "", identity, auth.IdentitySecretHeader, identitySecret)
	require.Equal(t, fiber.StatusOK, status)
	session := decode[struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}](t, env)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "u-new", session.User.ID)
	assert.Equal(t, string(domain.RoleAgent), session.User.Role)

	status, env = h.do(t, fiber.MethodGet, "/users/me", session.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"id":"u-new"`)
}

func TestSessionValidatesPayload(t *testing.T) {
	h := newHarness(t)
	status, env := h.do(t, fiber.MethodPost, "/auth/session", "", fiber.Map{"email": "not-an-email"},
		auth.IdentitySecretHeader, identitySecret)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "uid")
}

func TestCreateTicketRendersInViewerCurrency(t *testing.T) {
	h := newHarness(t)
	clerk := h.token(t, "u-clerk")

	status, env := h.do(t, fiber.MethodPost, "/tickets", clerk, sarTicket("RUH-1"))
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)
	ticket := decode[ticketView](t, env)
	assert.InDelta(t, 100, ticket.AmountDue.Base, 1e-9)
	assert.Equal(t, "375.00 ر.س", ticket.AmountDue.Display)
	assert.True(t, ticket.IsPaid)

	status, env = h.do(t, fiber.MethodGet, "/tickets/"+ticket.ID+"?currency=USD", clerk, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "100.00 $", decode[ticketView](t, env).AmountDue.Display)

	agent, err := h.deps.AgentRepo.GetByID(context.Background(), "a-nile")
	require.NoError(t, err)
	assert.InDelta(t, 400, agent.Balance, 1e-9)
}

func TestCreateTicketRejectsPartialAboveDue(t *testing.T) {
	h := newHarness(t)
	body := sarTicket("RUH-2")
	body["payment_mode"] = "partial"
	body["partial_amount"] = 400

	status, env := h.do(t, fiber.MethodPost, "/tickets", h.token(t, "u-clerk"), body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = h.do(t, fiber.MethodGet, "/tickets", h.token(t, "u-admin"), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decode[[]ticketView](t, env))
}

func TestCreateTicketRequiresPartialAmountInPartialMode(t *testing.T) {
	h := newHarness(t)
	body := sarTicket("RUH-3")
	body["payment_mode"] = "partial"

	status, env := h.do(t, fiber.MethodPost, "/tickets", h.token(t, "u-clerk"), body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "partial_amount")
}

func TestClosedTicketIsFrozenForAgents(t *testing.T) {
	h := newHarness(t)
	clerk := h.token(t, "u-clerk")
	admin := h.token(t, "u-admin")

	_, env := h.do(t, fiber.MethodPost, "/tickets", clerk, sarTicket("RUH-4"))
	id := decode[ticketView](t, env).ID

	status, env := h.do(t, fiber.MethodPatch, "/tickets/"+id, clerk, fiber.Map{"is_closed": true})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = h.do(t, fiber.MethodPatch, "/tickets/"+id, admin, fiber.Map{"is_closed": true})
	require.Equal(t, fiber.StatusOK, status)
	closed := decode[ticketView](t, env)
	assert.True(t, closed.IsClosed)
	assert.Equal(t, string(domain.PaymentStatusClosed), closed.Status)

	status, _ = h.do(t, fiber.MethodPatch, "/tickets/"+id, clerk, fiber.Map{"amount_due": 10})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = h.do(t, fiber.MethodDelete, "/tickets/"+id, clerk, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = h.do(t, fiber.MethodDelete, "/tickets/"+id, admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestTicketLogsFollowMutations(t *testing.T) {
	h := newHarness(t)
	clerk := h.token(t, "u-clerk")
	admin := h.token(t, "u-admin")

	_, env := h.do(t, fiber.MethodPost, "/tickets", clerk, sarTicket("RUH-5"))
	id := decode[ticketView](t, env).ID
	h.do(t, fiber.MethodPatch, "/tickets/"+id, admin, fiber.Map{"amount_due": 500, "is_paid": false})

	status, env := h.do(t, fiber.MethodGet, "/tickets/"+id+"/logs", clerk, nil)
	require.Equal(t, fiber.StatusOK, status)
	logs := decode[[]domain.TicketLog](t, env)
	require.Len(t, logs, 2)
	actions := []domain.LogAction{logs[0].Action, logs[1].Action}
	assert.Contains(t, actions, domain.ActionTicketCreated)
	assert.Contains(t, actions, domain.ActionTicketUpdated)

	status, env = h.do(t, fiber.MethodGet, "/logs/users/u-clerk", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]domain.LogEntry](t, env), 1)
}

func TestAdminOnlyReads(t *testing.T) {
	h := newHarness(t)
	clerk := h.token(t, "u-clerk")

	for _, path := range []string{"/users", "/users/u-admin", "/logs", "/metrics"} {
		status, env := h.do(t, fiber.MethodGet, path, clerk, nil)
		assert.Equal(t, fiber.StatusForbidden, status, path)
		assert.Equal(t, "FORBIDDEN", env.Error.Code, path)
	}

	status, env := h.do(t, fiber.MethodGet, "/users", h.token(t, "u-admin"), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env), 2)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	status, env := h.do(t, fiber.MethodGet, "/tickets", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = h.do(t, fiber.MethodGet, "/tickets", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestBaseCurrencyIsProtected(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, "u-admin")

	status, env := h.do(t, fiber.MethodDelete, "/currencies/USD", admin, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = h.do(t, fiber.MethodPatch, "/currencies/USD", admin, fiber.Map{"exchange_rate": 2})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestConnectionAndHealth(t *testing.T) {
	h := newHarness(t)
	clerk := h.token(t, "u-clerk")

	status, env := h.do(t, fiber.MethodGet, "/connection", clerk, nil)
	require.Equal(t, fiber.StatusOK, status)
	state := decode[resilience.State](t, env)
	assert.Equal(t, resilience.StatusOnline, state.Status)

	status, env = h.do(t, fiber.MethodPost, "/connection/retry", clerk, nil)
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, resilience.StatusOnline, decode[resilience.State](t, env).Status)

	status, _ = h.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUnknownRouteRendersErrorEnvelope(t *testing.T) {
	h := newHarness(t)
	status, env := h.do(t, fiber.MethodGet, "/nope", h.token(t, "u-admin"), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
