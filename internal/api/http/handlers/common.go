package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/auth"
	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/service"
	apperrors "github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

const maxListLimit = 500

func bindJSON(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func callerActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func callerUser(c *fiber.Ctx) (*domain.AppUser, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

func queryLimit(c *fiber.Ctx, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// Presenter renders stored base amounts in the caller's preferred currency.
type Presenter struct {
	currencies *service.CurrencyService
}

// NewPresenter constructs Presenter.
func NewPresenter(currencies *service.CurrencyService) *Presenter {
	return &Presenter{currencies: currencies}
}

// viewer resolves the display currency. Rendering falls back to the base
// currency when the rate table cannot be read.
func (p *Presenter) viewer(c *fiber.Ctx) domain.Currency {
	preferred := ""
	if user, ok := auth.UserFromContext(c); ok {
		preferred = user.PreferredCurrency
	}
	return p.viewerFor(c, preferred)
}

func (p *Presenter) viewerFor(c *fiber.Ctx, preferred string) domain.Currency {
	if q := c.Query("currency"); q != "" {
		preferred = q
	}
	table, err := p.currencies.Table(c.UserContext())
	if err != nil {
		return currency.BaseCurrency()
	}
	return table.ForViewer(preferred)
}

func money(base float64, viewer domain.Currency) dto.Money {
	text, err := currency.FormatFromBase(base, viewer)
	if err != nil {
		text = currency.Format(base, currency.BaseCurrency())
	}
	return dto.Money{Base: base, Display: text}
}

func ticketResponse(t domain.Ticket, viewer domain.Currency) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		AgentID:         t.AgentID,
		CreatedByUserID: t.CreatedByUserID,
		AmountDue:       money(t.AmountDue, viewer),
		PaidAmount:      money(t.PaidAmount, viewer),
		PartialPayment:  money(t.PartialPayment, viewer),
		Outstanding:     money(t.OutstandingDebt(), viewer),
		IsPaid:          t.IsPaid,
		IsClosed:        t.IsClosed,
		Status:          t.Status(),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func serviceTicketResponse(t domain.ServiceTicket, viewer domain.Currency) dto.ServiceTicketResponse {
	return dto.ServiceTicketResponse{
		TicketResponse:   ticketResponse(t.Ticket, viewer),
		ServiceID:        t.ServiceID,
		ServiceName:      t.ServiceName,
		ServiceBasePrice: money(t.ServiceBasePrice, viewer),
		Quantity:         t.EffectiveQuantity(),
	}
}

func userResponse(u domain.AppUser, viewer domain.Currency) dto.UserResponse {
	return dto.UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		PhotoURL:          u.PhotoURL,
		Role:              u.Role,
		UserBalance:       u.UserBalance,
		UserBalanceText:   money(u.UserBalance, viewer).Display,
		PreferredCurrency: u.PreferredCurrency,
		CreatedAt:         u.CreatedAt,
	}
}

func agentResponse(a domain.Agent, viewer domain.Currency) dto.AgentResponse {
	return dto.AgentFromDomain(a, money(a.Balance, viewer).Display)
}
