package service

import (
	"context"
	"strings"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// ServiceInput describes a catalog service priced in Currency.
type ServiceInput struct {
	Name      string
	BasePrice float64
	Currency  string
}

// ServiceUpdate lists changeable catalog attributes. Nil means unchanged.
type ServiceUpdate struct {
	Name      *string
	BasePrice *float64
	Currency  string
	IsActive  *bool
}

// CatalogService curates the services that service tickets sell.
type CatalogService struct {
	deps       Dependencies
	currencies CurrencyLookup
	events     publisher
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(deps Dependencies, currencies CurrencyLookup) *CatalogService {
	return &CatalogService{deps: deps, currencies: currencies, events: newPublisher(deps)}
}

func (s *CatalogService) price(ctx context.Context, amount float64, code string) (float64, error) {
	if err := validateNonNegative("basePrice", amount); err != nil {
		return 0, err
	}
	c, err := s.currencies.Lookup(ctx, code)
	if err != nil {
		return 0, err
	}
	v, err := currency.ToBase(amount, c)
	if err != nil {
		return 0, errorutil.WrapValidation("invalid currency", err)
	}
	return v, nil
}

// Create adds an active service.
func (s *CatalogService) Create(ctx context.Context, actor domain.Actor, input ServiceInput) (*domain.Service, error) {
	if err := requireAdmin(actor, "manage services"); err != nil {
		return nil, err
	}
	name, err := requireText("name", input.Name)
	if err != nil {
		return nil, err
	}
	price, err := s.price(ctx, input.BasePrice, input.Currency)
	if err != nil {
		return nil, err
	}
	svc := &domain.Service{
		Name:      name,
		BasePrice: price,
		IsActive:  true,
		CreatedAt: s.events.now(),
	}
	if err := s.deps.ServiceRepo.Save(ctx, svc); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventServiceCreated, actor, events.ServicePayload{Service: *svc})
	return svc, nil
}

// Update renames, reprices or toggles a service. Existing service tickets
// keep the price they were sold at.
func (s *CatalogService) Update(ctx context.Context, actor domain.Actor, id string, update ServiceUpdate) (*domain.Service, error) {
	if err := requireAdmin(actor, "manage services"); err != nil {
		return nil, err
	}
	before, err := s.deps.ServiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	after := *before
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, errorutil.NewValidationError("name is required", map[string]any{"field": "name"})
		}
		after.Name = name
	}
	if update.BasePrice != nil {
		price, err := s.price(ctx, *update.BasePrice, update.Currency)
		if err != nil {
			return nil, err
		}
		after.BasePrice = price
	}
	if update.IsActive != nil {
		after.IsActive = *update.IsActive
	}
	if len(audit.DiffService(*before, after)) == 0 {
		return before, nil
	}
	if err := s.deps.ServiceRepo.Save(ctx, &after); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventServiceUpdated, actor, events.ServiceUpdatedPayload{Before: *before, After: after})
	return &after, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Service, error) {
	return s.deps.ServiceRepo.GetByID(ctx, id)
}

func (s *CatalogService) List(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	return s.deps.ServiceRepo.List(ctx, activeOnly)
}
