package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

// EventType enumerates supported event identifiers. Each mutation
// publishes exactly one event after its primary write succeeds.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketUpdated        EventType = "ticket_updated"
	EventTicketDeleted        EventType = "ticket_deleted"
	EventServiceTicketCreated EventType = "service_ticket_created"
	EventServiceTicketUpdated EventType = "service_ticket_updated"
	EventServiceTicketDeleted EventType = "service_ticket_deleted"
	EventAgentCreated         EventType = "agent_created"
	EventAgentBalanceUpdated  EventType = "agent_balance_updated"
	EventUserCreated          EventType = "user_created"
	EventUserRoleUpdated      EventType = "user_role_updated"
	EventUserBalanceUpdated   EventType = "user_balance_updated"
	EventCurrencyCreated      EventType = "currency_created"
	EventCurrencyUpdated      EventType = "currency_updated"
	EventCurrencyDeleted      EventType = "currency_deleted"
	EventServiceCreated       EventType = "service_created"
	EventServiceUpdated       EventType = "service_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   any          `json:"payload"`
}

// New builds an event stamped at ts.
func New(eventType EventType, actor domain.Actor, ts time.Time, payload any) Event {
	return Event{ID: uuid.NewString(), Type: eventType, Actor: actor, Timestamp: ts, Payload: payload}
}

func (e Event) withDefaults() Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

// TicketCreatedPayload payload. DebitFailed marks a ticket that was
// saved while the agent balance was left untouched.
type TicketCreatedPayload struct {
	Ticket        domain.Ticket `json:"ticket"`
	AgentName     string        `json:"agentName"`
	PaidBase      float64       `json:"paidBase"`
	InputCurrency string        `json:"inputCurrency"`
	DebitFailed   bool          `json:"debitFailed,omitempty"`
}

// TicketUpdatedPayload payload. Changes is never empty.
type TicketUpdatedPayload struct {
	Before  domain.Ticket        `json:"before"`
	After   domain.Ticket        `json:"after"`
	Changes []domain.FieldChange `json:"changes"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Ticket          domain.Ticket `json:"ticket"`
	AgentName       string        `json:"agentName"`
	BalanceReversed bool          `json:"balanceReversed"`
}

// ServiceTicketCreatedPayload payload.
type ServiceTicketCreatedPayload struct {
	Ticket        domain.ServiceTicket `json:"ticket"`
	AgentName     string               `json:"agentName"`
	PaidBase      float64              `json:"paidBase"`
	InputCurrency string               `json:"inputCurrency"`
	DebitFailed   bool                 `json:"debitFailed,omitempty"`
}

// ServiceTicketUpdatedPayload payload.
type ServiceTicketUpdatedPayload struct {
	Before  domain.ServiceTicket `json:"before"`
	After   domain.ServiceTicket `json:"after"`
	Changes []domain.FieldChange `json:"changes"`
}

// ServiceTicketDeletedPayload payload.
type ServiceTicketDeletedPayload struct {
	Ticket          domain.ServiceTicket `json:"ticket"`
	AgentName       string               `json:"agentName"`
	BalanceReversed bool                 `json:"balanceReversed"`
}

// AgentCreatedPayload payload.
type AgentCreatedPayload struct {
	Agent domain.Agent `json:"agent"`
}

// BalanceChange describes a balance mutation in base currency.
type BalanceChange struct {
	Op            domain.BalanceOp `json:"op"`
	Amount        float64          `json:"amount"`
	InputCurrency string           `json:"inputCurrency"`
	OldBalance    float64          `json:"oldBalance"`
	NewBalance    float64          `json:"newBalance"`
}

// AgentBalanceUpdatedPayload payload.
type AgentBalanceUpdatedPayload struct {
	Agent  domain.Agent  `json:"agent"`
	Change BalanceChange `json:"change"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	User domain.AppUser `json:"user"`
}

// UserRoleUpdatedPayload payload.
type UserRoleUpdatedPayload struct {
	User    domain.AppUser `json:"user"`
	OldRole domain.Role    `json:"oldRole"`
	NewRole domain.Role    `json:"newRole"`
}

// UserBalanceUpdatedPayload payload.
type UserBalanceUpdatedPayload struct {
	User   domain.AppUser `json:"user"`
	Change BalanceChange  `json:"change"`
}

// CurrencyPayload covers currency create and delete.
type CurrencyPayload struct {
	Currency domain.Currency `json:"currency"`
}

// CurrencyUpdatedPayload payload.
type CurrencyUpdatedPayload struct {
	Before domain.Currency `json:"before"`
	After  domain.Currency `json:"after"`
}

// ServicePayload covers service creation.
type ServicePayload struct {
	Service domain.Service `json:"service"`
}

// ServiceUpdatedPayload payload.
type ServiceUpdatedPayload struct {
	Before domain.Service `json:"before"`
	After  domain.Service `json:"after"`
}
