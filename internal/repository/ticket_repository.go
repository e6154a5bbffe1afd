package repository

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	AgentID         string
	CreatedByUserID string
	Limit           int
}

func (f TicketFilter) query() store.Query {
	q := store.Query{Limit: f.Limit}
	if f.AgentID != "" {
		q = q.Where("agentId", store.OpEq, f.AgentID)
	}
	if f.CreatedByUserID != "" {
		q = q.Where("createdByUserId", store.OpEq, f.CreatedByUserID)
	}
	return q.Sorted("createdAt", true)
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	docs collection[domain.Ticket]
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(s store.DocumentStore) TicketRepository {
	return &ticketRepository{docs: newCollection[domain.Ticket](s, CollectionTickets, "ticket")}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = newID()
	}
	return r.docs.put(ctx, ticket.ID, ticket)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.docs.put(ctx, ticket.ID, ticket)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.docs.get(ctx, id)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	return r.docs.query(ctx, filter.query())
}

// ServiceTicketRepository persists tickets sold against a service.
type ServiceTicketRepository interface {
	Create(ctx context.Context, ticket *domain.ServiceTicket) error
	Update(ctx context.Context, ticket *domain.ServiceTicket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.ServiceTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.ServiceTicket, error)
}

type serviceTicketRepository struct {
	docs collection[domain.ServiceTicket]
}

// NewServiceTicketRepository instantiates repository.
func NewServiceTicketRepository(s store.DocumentStore) ServiceTicketRepository {
	return &serviceTicketRepository{docs: newCollection[domain.ServiceTicket](s, CollectionServiceTickets, "service ticket")}
}

func (r *serviceTicketRepository) Create(ctx context.Context, ticket *domain.ServiceTicket) error {
	if ticket.ID == "" {
		ticket.ID = newID()
	}
	return r.docs.put(ctx, ticket.ID, ticket)
}

func (r *serviceTicketRepository) Update(ctx context.Context, ticket *domain.ServiceTicket) error {
	return r.docs.put(ctx, ticket.ID, ticket)
}

func (r *serviceTicketRepository) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}

func (r *serviceTicketRepository) GetByID(ctx context.Context, id string) (*domain.ServiceTicket, error) {
	return r.docs.get(ctx, id)
}

func (r *serviceTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.ServiceTicket, error) {
	return r.docs.query(ctx, filter.query())
}
