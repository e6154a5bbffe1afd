package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// TicketService manages travel tickets and their effect on agent balances.
type TicketService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateTicketInput) (*domain.Ticket, error)
	Update(ctx context.Context, actor domain.Actor, id string, patch domain.TicketPatch, currencyCode string) (*domain.Ticket, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error)
}

// CreateTicketInput carries a new ticket in the input currency.
type CreateTicketInput struct {
	TicketNumber string
	AgentID      string
	PayerUserID  string
	PaymentInput
}

type ticketService struct {
	deps       Dependencies
	currencies CurrencyLookup
	events     publisher
	logger     *zap.Logger
}

// NewTicketService constructs TicketService.
func NewTicketService(deps Dependencies, currencies CurrencyLookup) TicketService {
	return &ticketService{
		deps:       deps,
		currencies: currencies,
		events:     newPublisher(deps),
		logger:     deps.logger(),
	}
}

func (s *ticketService) Create(ctx context.Context, actor domain.Actor, input CreateTicketInput) (*domain.Ticket, error) {
	number, err := requireText("ticketNumber", input.TicketNumber)
	if err != nil {
		return nil, err
	}
	if err := input.PaymentInput.validate(); err != nil {
		return nil, err
	}
	c, err := s.currencies.Lookup(ctx, input.Currency)
	if err != nil {
		return nil, err
	}
	agent, err := s.deps.AgentRepo.GetByID(ctx, input.AgentID)
	if err != nil {
		return nil, err
	}
	payer, err := s.deps.UserRepo.GetByID(ctx, input.PayerUserID)
	if err != nil {
		return nil, err
	}
	settled, err := input.PaymentInput.settle(c, *payer)
	if err != nil {
		return nil, err
	}

	now := s.events.now()
	ticket := &domain.Ticket{
		AgentID:         agent.ID,
		CreatedByUserID: payer.ID,
		TicketNumber:    number,
		AmountDue:       settled.dueBase,
		PaidAmount:      settled.paidBase,
		PartialPayment:  settled.partialBase,
		IsPaid:          settled.isPaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.deps.TicketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	debitErr := debitAgent(ctx, s.deps, agent, settled.paidBase, now)
	if debitErr != nil {
		s.logger.Error("agent debit failed after ticket write",
			zap.String("ticket_id", ticket.ID), zap.String("agent_id", agent.ID), zap.Error(debitErr))
	}

	// The ticket exists either way, so it is always logged.
	s.events.publish(ctx, events.EventTicketCreated, actor, events.TicketCreatedPayload{
		Ticket:        *ticket,
		AgentName:     agent.Name,
		PaidBase:      settled.paidBase,
		InputCurrency: c.Code,
		DebitFailed:   debitErr != nil,
	})
	if debitErr != nil {
		return nil, debitError(debitErr, ticket.ID)
	}
	return ticket, nil
}

func (s *ticketService) Update(ctx context.Context, actor domain.Actor, id string, patch domain.TicketPatch, currencyCode string) (*domain.Ticket, error) {
	before, err := s.deps.TicketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTicketAccess(actor, *before, &patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return before, nil
	}
	c, err := s.currencies.Lookup(ctx, currencyCode)
	if err != nil {
		return nil, err
	}
	after, err := applyTicketPatch(*before, patch, c)
	if err != nil {
		return nil, err
	}
	changes := audit.DiffTicket(*before, after)
	if len(changes) == 0 {
		return before, nil
	}

	after.UpdatedAt = s.events.now()
	if err := s.deps.TicketRepo.Update(ctx, &after); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventTicketUpdated, actor, events.TicketUpdatedPayload{
		Before:  *before,
		After:   after,
		Changes: changes,
	})
	return &after, nil
}

func (s *ticketService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ticket, err := s.deps.TicketRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTicketAccess(actor, *ticket, nil); err != nil {
		return err
	}
	name := agentName(ctx, s.deps, ticket.AgentID)
	if err := s.deps.TicketRepo.Delete(ctx, id); err != nil {
		return err
	}

	reversed := false
	if s.deps.Ledger.ReverseBalanceOnDelete && ticket.PaidAmount != 0 {
		if err := creditAgent(ctx, s.deps, ticket.AgentID, ticket.PaidAmount, s.events.now()); err != nil {
			s.logger.Warn("agent balance reversal failed",
				zap.String("ticket_id", ticket.ID), zap.String("agent_id", ticket.AgentID), zap.Error(err))
		} else {
			reversed = true
		}
	}

	s.events.publish(ctx, events.EventTicketDeleted, actor, events.TicketDeletedPayload{
		Ticket:          *ticket,
		AgentName:       name,
		BalanceReversed: reversed,
	})
	return nil
}

func (s *ticketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.deps.TicketRepo.GetByID(ctx, id)
}

func (s *ticketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.deps.TicketRepo.List(ctx, filter)
}

// debitAgent subtracts the paid amount from the agent balance. The balance
// may go negative.
func debitAgent(ctx context.Context, deps Dependencies, agent *domain.Agent, amount float64, now time.Time) error {
	updated := *agent
	updated.Balance = agent.Balance - amount
	updated.UpdatedAt = now
	if err := deps.AgentRepo.Save(ctx, &updated); err != nil {
		return err
	}
	*agent = updated
	return nil
}

func creditAgent(ctx context.Context, deps Dependencies, agentID string, amount float64, now time.Time) error {
	agent, err := deps.AgentRepo.GetByID(ctx, agentID)
	if err != nil {
		return err
	}
	agent.Balance += amount
	agent.UpdatedAt = now
	return deps.AgentRepo.Save(ctx, agent)
}

// debitError reports a ticket that was written while the agent debit was
// not, so an operator can reconcile it.
func debitError(err error, ticketID string) error {
	de := errorutil.ToDomainError(err)
	details := map[string]any{"ticketId": ticketID}
	for k, v := range de.Details {
		details[k] = v
	}
	return &errorutil.DomainError{
		Code:       de.Code,
		Message:    fmt.Sprintf("ticket %s saved but agent balance was not updated", ticketID),
		HTTPStatus: de.HTTPStatus,
		Details:    details,
		Err:        err,
	}
}
