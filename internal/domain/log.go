package domain

import "time"

// LogAction is the closed set of audited actions.
type LogAction string

const (
	ActionTicketCreated        LogAction = "ticket_created"
	ActionTicketUpdated        LogAction = "ticket_updated"
	ActionTicketDeleted        LogAction = "ticket_deleted"
	ActionServiceTicketCreated LogAction = "service_ticket_created"
	ActionServiceTicketUpdated LogAction = "service_ticket_updated"
	ActionServiceTicketDeleted LogAction = "service_ticket_deleted"
	ActionAgentCreated         LogAction = "agent_created"
	ActionAgentBalanceUpdated  LogAction = "agent_balance_updated"
	ActionUserCreated          LogAction = "user_created"
	ActionUserRoleUpdated      LogAction = "user_role_updated"
	ActionUserBalanceUpdated   LogAction = "user_balance_updated"
	ActionCurrencyCreated      LogAction = "currency_created"
	ActionCurrencyUpdated      LogAction = "currency_updated"
	ActionCurrencyDeleted      LogAction = "currency_deleted"
	ActionServiceCreated       LogAction = "service_created"
	ActionServiceUpdated       LogAction = "service_updated"
)

// TargetType names the entity a log entry refers to.
type TargetType string

const (
	TargetTicket        TargetType = "ticket"
	TargetServiceTicket TargetType = "service_ticket"
	TargetAgent         TargetType = "agent"
	TargetUser          TargetType = "user"
	TargetCurrency      TargetType = "currency"
	TargetService       TargetType = "service"
)

// FieldChange is one changed field of a mutation.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// LogEntry is an immutable system-wide activity record.
type LogEntry struct {
	ID              string         `json:"id"`
	Action          LogAction      `json:"action"`
	PerformedBy     string         `json:"performedBy"`
	PerformedByName string         `json:"performedByName"`
	TargetID        string         `json:"targetId"`
	TargetType      TargetType     `json:"targetType"`
	Description     string         `json:"description"`
	OldValue        any            `json:"oldValue,omitempty"`
	NewValue        any            `json:"newValue,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// TicketLog is an immutable ticket-scoped history record.
type TicketLog struct {
	ID              string        `json:"id"`
	TicketID        string        `json:"ticketId"`
	Action          LogAction     `json:"action"`
	PerformedBy     string        `json:"performedBy"`
	PerformedByName string        `json:"performedByName"`
	Description     string        `json:"description"`
	Changes         []FieldChange `json:"changes,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}
