package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// ServiceTicketService manages tickets sold against the services catalog.
type ServiceTicketService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateServiceTicketInput) (*domain.ServiceTicket, error)
	Update(ctx context.Context, actor domain.Actor, id string, patch domain.ServiceTicketPatch, currencyCode string) (*domain.ServiceTicket, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	Get(ctx context.Context, id string) (*domain.ServiceTicket, error)
	List(ctx context.Context, filter repository.TicketFilter) ([]domain.ServiceTicket, error)
}

// CreateServiceTicketInput carries a new service ticket in the input currency.
type CreateServiceTicketInput struct {
	CreateTicketInput
	ServiceID string
	Quantity  int
}

type serviceTicketService struct {
	deps       Dependencies
	currencies CurrencyLookup
	events     publisher
	logger     *zap.Logger
}

// NewServiceTicketService constructs ServiceTicketService.
func NewServiceTicketService(deps Dependencies, currencies CurrencyLookup) ServiceTicketService {
	return &serviceTicketService{
		deps:       deps,
		currencies: currencies,
		events:     newPublisher(deps),
		logger:     deps.logger(),
	}
}

// checkServiceFloor rejects a due amount below the service's base cost.
func checkServiceFloor(t domain.ServiceTicket) error {
	if t.AmountDue >= t.MinimumDue()-epsilon {
		return nil
	}
	return errorutil.NewValidationError("amount due is below the service price", map[string]any{
		"amountDue":  t.AmountDue,
		"minimumDue": t.MinimumDue(),
		"quantity":   t.EffectiveQuantity(),
	})
}

func (s *serviceTicketService) Create(ctx context.Context, actor domain.Actor, input CreateServiceTicketInput) (*domain.ServiceTicket, error) {
	number, err := requireText("ticketNumber", input.TicketNumber)
	if err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, errorutil.NewValidationError("quantity must not be negative", map[string]any{"quantity": input.Quantity})
	}
	if err := input.PaymentInput.validate(); err != nil {
		return nil, err
	}
	c, err := s.currencies.Lookup(ctx, input.Currency)
	if err != nil {
		return nil, err
	}
	svc, err := s.deps.ServiceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, errorutil.NewValidationError("service is not active", map[string]any{"serviceId": svc.ID})
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
	ticket := &domain.ServiceTicket{
		Ticket: domain.Ticket{
			AgentID:         agent.ID,
			CreatedByUserID: payer.ID,
			TicketNumber:    number,
			AmountDue:       settled.dueBase,
			PaidAmount:      settled.paidBase,
			PartialPayment:  settled.partialBase,
			IsPaid:          settled.isPaid,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		ServiceBasePrice: svc.BasePrice,
		Quantity:         input.Quantity,
	}
	if err := checkServiceFloor(*ticket); err != nil {
		return nil, err
	}
	if err := s.deps.ServiceTicketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	debitErr := debitAgent(ctx, s.deps, agent, settled.paidBase, now)
	if debitErr != nil {
		s.logger.Error("agent debit failed after service ticket write",
			zap.String("ticket_id", ticket.ID), zap.String("agent_id", agent.ID), zap.Error(debitErr))
	}

	s.events.publish(ctx, events.EventServiceTicketCreated, actor, events.ServiceTicketCreatedPayload{
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

func (s *serviceTicketService) Update(ctx context.Context, actor domain.Actor, id string, patch domain.ServiceTicketPatch, currencyCode string) (*domain.ServiceTicket, error) {
	before, err := s.deps.ServiceTicketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTicketAccess(actor, before.Ticket, &patch.TicketPatch); err != nil {
		return nil, err
	}
	if patch.TicketPatch.IsEmpty() && patch.Quantity == nil {
		return before, nil
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, errorutil.NewValidationError("quantity must not be negative", map[string]any{"quantity": *patch.Quantity})
	}
	c, err := s.currencies.Lookup(ctx, currencyCode)
	if err != nil {
		return nil, err
	}
	base, err := applyTicketPatch(before.Ticket, patch.TicketPatch, c)
	if err != nil {
		return nil, err
	}
	after := *before
	after.Ticket = base
	if patch.Quantity != nil {
		after.Quantity = *patch.Quantity
	}
	if err := checkServiceFloor(after); err != nil {
		return nil, err
	}
	changes := audit.DiffServiceTicket(*before, after)
	if len(changes) == 0 {
		return before, nil
	}

	after.UpdatedAt = s.events.now()
	if err := s.deps.ServiceTicketRepo.Update(ctx, &after); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventServiceTicketUpdated, actor, events.ServiceTicketUpdatedPayload{
		Before:  *before,
		After:   after,
		Changes: changes,
	})
	return &after, nil
}

func (s *serviceTicketService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ticket, err := s.deps.ServiceTicketRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTicketAccess(actor, ticket.Ticket, nil); err != nil {
		return err
	}
	name := agentName(ctx, s.deps, ticket.AgentID)
	if err := s.deps.ServiceTicketRepo.Delete(ctx, id); err != nil {
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

	s.events.publish(ctx, events.EventServiceTicketDeleted, actor, events.ServiceTicketDeletedPayload{
		Ticket:          *ticket,
		AgentName:       name,
		BalanceReversed: reversed,
	})
	return nil
}

func (s *serviceTicketService) Get(ctx context.Context, id string) (*domain.ServiceTicket, error) {
	return s.deps.ServiceTicketRepo.GetByID(ctx, id)
}

func (s *serviceTicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.ServiceTicket, error) {
	return s.deps.ServiceTicketRepo.List(ctx, filter)
}
