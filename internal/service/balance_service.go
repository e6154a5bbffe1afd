package service

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// BalanceService adjusts agent balances and user credit.
type BalanceService struct {
	deps       Dependencies
	currencies CurrencyLookup
	events     publisher
}

// BalanceInput is a balance mutation in the input currency.
type BalanceInput struct {
	Op       domain.BalanceOp
	Amount   float64
	Currency string
}

// NewBalanceService constructs BalanceService.
func NewBalanceService(deps Dependencies, currencies CurrencyLookup) *BalanceService {
	return &BalanceService{deps: deps, currencies: currencies, events: newPublisher(deps)}
}

func (s *BalanceService) toBase(ctx context.Context, input BalanceInput) (float64, domain.Currency, error) {
	c, err := s.currencies.Lookup(ctx, input.Currency)
	if err != nil {
		return 0, c, err
	}
	amount, err := currency.ToBase(input.Amount, c)
	if err != nil {
		return 0, c, errorutil.WrapValidation("invalid currency", err)
	}
	return amount, c, nil
}

// UpdateAgentBalance sets or increments an agent balance. A negative add
// is a correction. There is no floor at zero.
func (s *BalanceService) UpdateAgentBalance(ctx context.Context, actor domain.Actor, agentID string, input BalanceInput) (*domain.Agent, error) {
	if err := requireAdmin(actor, "adjust agent balances"); err != nil {
		return nil, err
	}
	if input.Op != domain.BalanceOpSet && input.Op != domain.BalanceOpAdd {
		return nil, errorutil.NewValidationError("agent balance operation must be set or add", map[string]any{"op": input.Op})
	}
	if !validAmount(input.Amount) {
		return nil, errorutil.NewValidationError("amount must be a number", map[string]any{"field": "amount"})
	}
	amount, c, err := s.toBase(ctx, input)
	if err != nil {
		return nil, err
	}
	agent, err := s.deps.AgentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	old := agent.Balance
	agent.Balance = input.Op.Apply(old, amount)
	agent.UpdatedAt = s.events.now()
	if err := s.deps.AgentRepo.Save(ctx, agent); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventAgentBalanceUpdated, actor, events.AgentBalanceUpdatedPayload{
		Agent: *agent,
		Change: events.BalanceChange{
			Op:            input.Op,
			Amount:        amount,
			InputCurrency: c.Code,
			OldBalance:    old,
			NewBalance:    agent.Balance,
		},
	})
	return agent, nil
}

// UpdateUserBalance changes a user's stored credit. The raw input amount
// must not be negative whatever the operation.
func (s *BalanceService) UpdateUserBalance(ctx context.Context, actor domain.Actor, userID string, input BalanceInput) (*domain.AppUser, error) {
	if err := requireAdmin(actor, "adjust user credit"); err != nil {
		return nil, err
	}
	switch input.Op {
	case domain.BalanceOpSet, domain.BalanceOpAdd, domain.BalanceOpSubtract:
	default:
		return nil, errorutil.NewValidationError("unknown balance operation", map[string]any{"op": input.Op})
	}
	if err := validateNonNegative("amount", input.Amount); err != nil {
		return nil, err
	}
	amount, c, err := s.toBase(ctx, input)
	if err != nil {
		return nil, err
	}
	user, err := s.deps.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	old := user.UserBalance
	user.UserBalance = input.Op.Apply(old, amount)
	user.UpdatedAt = s.events.now()
	if err := s.deps.UserRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventUserBalanceUpdated, actor, events.UserBalanceUpdatedPayload{
		User: *user,
		Change: events.BalanceChange{
			Op:            input.Op,
			Amount:        amount,
			InputCurrency: c.Code,
			OldBalance:    old,
			NewBalance:    user.UserBalance,
		},
	})
	return user, nil
}
