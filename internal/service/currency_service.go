package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// CurrencyLookup resolves an input currency code into a usable record.
type CurrencyLookup interface {
	Lookup(ctx context.Context, code string) (domain.Currency, error)
}

// CurrencyService curates the exchange-rate table.
type CurrencyService struct {
	repo   repository.CurrencyRepository
	events publisher
	logger *zap.Logger
}

// CurrencyInput describes a new currency.
type CurrencyInput struct {
	Code         string
	Name         string
	Symbol       string
	ExchangeRate float64
}

// CurrencyUpdate lists changeable attributes. Nil means unchanged.
type CurrencyUpdate struct {
	Name         *string
	Symbol       *string
	ExchangeRate *float64
	IsActive     *bool
}

// NewCurrencyService constructs the service.
func NewCurrencyService(deps Dependencies) *CurrencyService {
	return &CurrencyService{repo: deps.CurrencyRepo, events: newPublisher(deps), logger: deps.logger()}
}

// EnsureBaseCurrency seeds the base currency record when it is missing.
func (s *CurrencyService) EnsureBaseCurrency(ctx context.Context) error {
	_, err := s.repo.GetByCode(ctx, domain.BaseCurrencyCode)
	if err == nil {
		return nil
	}
	if !errorutil.HasCode(err, errorutil.CodeNotFound) {
		return err
	}
	base := currency.BaseCurrency()
	base.CreatedAt = s.events.now()
	if err := s.repo.Save(ctx, &base); err != nil {
		return err
	}
	s.logger.Info("seeded base currency", zap.String("code", base.Code))
	return nil
}

// List returns currencies ordered by code.
func (s *CurrencyService) List(ctx context.Context, activeOnly bool) ([]domain.Currency, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return all, nil
	}
	out := all[:0]
	for _, c := range all {
		if c.IsActive || c.IsBase() {
			out = append(out, c)
		}
	}
	return out, nil
}

// Table snapshots the current rates.
func (s *CurrencyService) Table(ctx context.Context) (*currency.Table, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return currency.NewTable(all), nil
}

// Lookup resolves code to an active currency with a positive rate. An
// unusable code is a validation failure.
func (s *CurrencyService) Lookup(ctx context.Context, code string) (domain.Currency, error) {
	code = currency.NormalizeCode(code)
	if code == "" {
		code = domain.BaseCurrencyCode
	}
	c, err := s.repo.GetByCode(ctx, code)
	switch {
	case err == nil:
	case errorutil.HasCode(err, errorutil.CodeNotFound) && code == domain.BaseCurrencyCode:
		base := currency.BaseCurrency()
		c = &base
	case errorutil.HasCode(err, errorutil.CodeNotFound):
		return domain.Currency{}, errorutil.WrapValidation("invalid currency",
			&currency.InvalidCurrencyError{Code: code, Reason: "unknown currency"})
	default:
		return domain.Currency{}, err
	}
	resolved, err := currency.NewTable([]domain.Currency{*c}).Lookup(code)
	if err != nil {
		return domain.Currency{}, errorutil.WrapValidation("invalid currency", err)
	}
	return resolved, nil
}

// Create adds a currency. Codes are unique.
func (s *CurrencyService) Create(ctx context.Context, actor domain.Actor, input CurrencyInput) (*domain.Currency, error) {
	if err := requireAdmin(actor, "manage currencies"); err != nil {
		return nil, err
	}
	code := currency.NormalizeCode(input.Code)
	if code == "" {
		return nil, errorutil.NewValidationError("currency code required", nil)
	}
	if !validAmount(input.ExchangeRate) || input.ExchangeRate <= 0 {
		return nil, errorutil.WrapValidation("invalid currency",
			&currency.InvalidCurrencyError{Code: code, Reason: "exchange rate must be positive"})
	}
	if code == domain.BaseCurrencyCode && input.ExchangeRate != 1 {
		return nil, errorutil.NewForbidden("the base currency rate is fixed at 1")
	}
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, errorutil.NewConflict("currency already exists", map[string]any{"code": code})
	} else if !errorutil.HasCode(err, errorutil.CodeNotFound) {
		return nil, err
	}

	c := &domain.Currency{
		Code:         code,
		Name:         strings.TrimSpace(input.Name),
		Symbol:       strings.TrimSpace(input.Symbol),
		ExchangeRate: input.ExchangeRate,
		IsActive:     true,
		CreatedAt:    s.events.now(),
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventCurrencyCreated, actor, events.CurrencyPayload{Currency: *c})
	return c, nil
}

// Update changes a currency. The base currency keeps its rate and can
// never be deactivated.
func (s *CurrencyService) Update(ctx context.Context, actor domain.Actor, code string, update CurrencyUpdate) (*domain.Currency, error) {
	if err := requireAdmin(actor, "manage currencies"); err != nil {
		return nil, err
	}
	code = currency.NormalizeCode(code)
	before, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	after := *before

	if update.ExchangeRate != nil {
		rate := *update.ExchangeRate
		if before.IsBase() && rate != before.ExchangeRate {
			return nil, errorutil.NewForbidden("the base currency rate cannot change")
		}
		if !validAmount(rate) || rate <= 0 {
			return nil, errorutil.WrapValidation("invalid currency",
				&currency.InvalidCurrencyError{Code: code, Reason: "exchange rate must be positive"})
		}
		after.ExchangeRate = rate
	}
	if update.IsActive != nil {
		if before.IsBase() && !*update.IsActive {
			return nil, errorutil.NewForbidden("the base currency cannot be deactivated")
		}
		after.IsActive = *update.IsActive
	}
	if update.Name != nil {
		after.Name = strings.TrimSpace(*update.Name)
	}
	if update.Symbol != nil {
		after.Symbol = strings.TrimSpace(*update.Symbol)
	}
	if after == *before {
		return before, nil
	}

	if err := s.repo.Save(ctx, &after); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventCurrencyUpdated, actor, events.CurrencyUpdatedPayload{Before: *before, After: after})
	return &after, nil
}

// Delete removes a currency other than the base currency.
func (s *CurrencyService) Delete(ctx context.Context, actor domain.Actor, code string) error {
	if err := requireAdmin(actor, "manage currencies"); err != nil {
		return err
	}
	code = currency.NormalizeCode(code)
	if code == domain.BaseCurrencyCode {
		return errorutil.NewForbidden("the base currency cannot be deleted")
	}
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return err
	}
	s.events.publish(ctx, events.EventCurrencyDeleted, actor, events.CurrencyPayload{Currency: *existing})
	return nil
}
