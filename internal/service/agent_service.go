package service

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// CreateAgentInput describes a new agent. OpeningBalance is in Currency.
type CreateAgentInput struct {
	Name              string
	OpeningBalance    float64
	Currency          string
	PreferredCurrency string
}

// AgentService manages the agents tickets are issued against.
type AgentService struct {
	deps       Dependencies
	currencies CurrencyLookup
	events     publisher
}

// NewAgentService constructs AgentService.
func NewAgentService(deps Dependencies, currencies CurrencyLookup) *AgentService {
	return &AgentService{deps: deps, currencies: currencies, events: newPublisher(deps)}
}

// Create registers an agent.
func (s *AgentService) Create(ctx context.Context, actor domain.Actor, input CreateAgentInput) (*domain.Agent, error) {
	if err := requireAdmin(actor, "create agents"); err != nil {
		return nil, err
	}
	name, err := requireText("name", input.Name)
	if err != nil {
		return nil, err
	}
	if !validAmount(input.OpeningBalance) {
		return nil, errorutil.NewValidationError("opening balance must be a number", map[string]any{"field": "openingBalance"})
	}
	c, err := s.currencies.Lookup(ctx, input.Currency)
	if err != nil {
		return nil, err
	}
	balance, err := currency.ToBase(input.OpeningBalance, c)
	if err != nil {
		return nil, errorutil.WrapValidation("invalid currency", err)
	}
	preferred := domain.BaseCurrencyCode
	if input.PreferredCurrency != "" {
		p, err := s.currencies.Lookup(ctx, input.PreferredCurrency)
		if err != nil {
			return nil, err
		}
		preferred = p.Code
	}

	now := s.events.now()
	agent := &domain.Agent{
		Name:              name,
		Balance:           balance,
		PreferredCurrency: preferred,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.deps.AgentRepo.Save(ctx, agent); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventAgentCreated, actor, events.AgentCreatedPayload{Agent: *agent})
	return agent, nil
}

func (s *AgentService) Get(ctx context.Context, id string) (*domain.Agent, error) {
	return s.deps.AgentRepo.GetByID(ctx, id)
}

func (s *AgentService) List(ctx context.Context) ([]domain.Agent, error) {
	return s.deps.AgentRepo.List(ctx)
}
