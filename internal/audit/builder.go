// Package audit turns committed mutations into immutable log records and
// appends them on a best-effort basis.
package audit

import (
	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/i18n"
)

// Record is what one mutation writes: the global entry and, for ticket
// scoped actions, the ticket history entry.
type Record struct {
	Entry     domain.LogEntry   `json:"entry"`
	TicketLog *domain.TicketLog `json:"ticketLog,omitempty"`
}

// Builder produces records from events. Output depends only on the
// event, so the same event always yields the same record; ids are taken
// from the event id so replays overwrite rather than duplicate.
type Builder struct {
	loc *i18n.Localizer
}

// NewBuilder describes entries in the localizer's language.
func NewBuilder(loc *i18n.Localizer) *Builder {
	if loc == nil {
		loc = i18n.New("")
	}
	return &Builder{loc: loc}
}

func money(amount float64) string {
	return currency.Format(amount, currency.BaseCurrency())
}

// Build returns the record for event, or false for events that are not
// audited.
func (b *Builder) Build(event events.Event) (Record, bool) {
	base := domain.LogEntry{
		ID:              event.ID,
		PerformedBy:     event.Actor.ID,
		PerformedByName: event.Actor.Name,
		Timestamp:       event.Timestamp,
	}

	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		e := base
		e.Action = domain.ActionTicketCreated
		e.TargetID, e.TargetType = p.Ticket.ID, domain.TargetTicket
		e.Description = b.loc.Sprintf(i18n.LogTicketCreated, p.Ticket.TicketNumber, p.AgentName, money(p.PaidBase))
		e.NewValue = p.Ticket
		e.Metadata = map[string]any{"agentId": p.Ticket.AgentID, "paidAmount": p.PaidBase, "inputCurrency": p.InputCurrency}
		if p.DebitFailed {
			e.Metadata["debitFailed"] = true
		}
		return b.withTicketLog(e, p.Ticket.ID, nil), true

	case events.TicketUpdatedPayload:
		e := base
		e.Action = domain.ActionTicketUpdated
		e.TargetID, e.TargetType = p.After.ID, domain.TargetTicket
		e.Description = b.loc.Sprintf(i18n.LogTicketUpdated, p.After.TicketNumber, Summarize(p.Changes))
		e.OldValue, e.NewValue = p.Before, p.After
		return b.withTicketLog(e, p.After.ID, p.Changes), true

	case events.TicketDeletedPayload:
		e := base
		e.Action = domain.ActionTicketDeleted
		e.TargetID, e.TargetType = p.Ticket.ID, domain.TargetTicket
		e.Description = b.loc.Sprintf(i18n.LogTicketDeleted, p.Ticket.TicketNumber, p.AgentName)
		e.OldValue = p.Ticket
		e.Metadata = map[string]any{
			"ticketNumber":    p.Ticket.TicketNumber,
			"agentId":         p.Ticket.AgentID,
			"agentName":       p.AgentName,
			"balanceReversed": p.BalanceReversed,
		}
		return b.withTicketLog(e, p.Ticket.ID, nil), true

	case events.ServiceTicketCreatedPayload:
		e := base
		e.Action = domain.ActionServiceTicketCreated
		e.TargetID, e.TargetType = p.Ticket.ID, domain.TargetServiceTicket
		e.Description = b.loc.Sprintf(i18n.LogServiceTicketCreated, p.Ticket.TicketNumber, p.Ticket.ServiceName, p.AgentName)
		e.NewValue = p.Ticket
		e.Metadata = map[string]any{"serviceId": p.Ticket.ServiceID, "paidAmount": p.PaidBase, "inputCurrency": p.InputCurrency}
		if p.DebitFailed {
			e.Metadata["debitFailed"] = true
		}
		return b.withTicketLog(e, p.Ticket.ID, nil), true

	case events.ServiceTicketUpdatedPayload:
		e := base
		e.Action = domain.ActionServiceTicketUpdated
		e.TargetID, e.TargetType = p.After.ID, domain.TargetServiceTicket
		e.Description = b.loc.Sprintf(i18n.LogServiceTicketUpdated, p.After.TicketNumber, Summarize(p.Changes))
		e.OldValue, e.NewValue = p.Before, p.After
		return b.withTicketLog(e, p.After.ID, p.Changes), true

	case events.ServiceTicketDeletedPayload:
		e := base
		e.Action = domain.ActionServiceTicketDeleted
		e.TargetID, e.TargetType = p.Ticket.ID, domain.TargetServiceTicket
		e.Description = b.loc.Sprintf(i18n.LogServiceTicketDeleted, p.Ticket.TicketNumber, p.Ticket.ServiceName)
		e.OldValue = p.Ticket
		e.Metadata = map[string]any{
			"ticketNumber":    p.Ticket.TicketNumber,
			"agentId":         p.Ticket.AgentID,
			"agentName":       p.AgentName,
			"balanceReversed": p.BalanceReversed,
		}
		return b.withTicketLog(e, p.Ticket.ID, nil), true

	case events.AgentCreatedPayload:
		e := base
		e.Action = domain.ActionAgentCreated
		e.TargetID, e.TargetType = p.Agent.ID, domain.TargetAgent
		e.Description = b.loc.Sprintf(i18n.LogAgentCreated, p.Agent.Name)
		e.NewValue = p.Agent
		return Record{Entry: e}, true

	case events.AgentBalanceUpdatedPayload:
		e := base
		e.Action = domain.ActionAgentBalanceUpdated
		e.TargetID, e.TargetType = p.Agent.ID, domain.TargetAgent
		e.Description = b.loc.Sprintf(i18n.LogAgentBalanceUpdated,
			p.Agent.Name, money(p.Change.OldBalance), money(p.Change.NewBalance), string(p.Change.Op))
		e.OldValue, e.NewValue = p.Change.OldBalance, p.Change.NewBalance
		e.Metadata = balanceMetadata(p.Change)
		return Record{Entry: e}, true

	case events.UserCreatedPayload:
		e := base
		e.Action = domain.ActionUserCreated
		e.TargetID, e.TargetType = p.User.ID, domain.TargetUser
		e.Description = b.loc.Sprintf(i18n.LogUserCreated, displayName(p.User))
		e.NewValue = p.User
		return Record{Entry: e}, true

	case events.UserRoleUpdatedPayload:
		e := base
		e.Action = domain.ActionUserRoleUpdated
		e.TargetID, e.TargetType = p.User.ID, domain.TargetUser
		e.Description = b.loc.Sprintf(i18n.LogUserRoleUpdated, displayName(p.User), string(p.OldRole), string(p.NewRole))
		e.OldValue, e.NewValue = p.OldRole, p.NewRole
		return Record{Entry: e}, true

	case events.UserBalanceUpdatedPayload:
		e := base
		e.Action = domain.ActionUserBalanceUpdated
		e.TargetID, e.TargetType = p.User.ID, domain.TargetUser
		e.Description = b.loc.Sprintf(i18n.LogUserBalanceUpdated,
			displayName(p.User), money(p.Change.OldBalance), money(p.Change.NewBalance), string(p.Change.Op))
		e.OldValue, e.NewValue = p.Change.OldBalance, p.Change.NewBalance
		e.Metadata = balanceMetadata(p.Change)
		return Record{Entry: e}, true

	case events.CurrencyPayload:
		e := base
		e.TargetID, e.TargetType = p.Currency.Code, domain.TargetCurrency
		if event.Type == events.EventCurrencyDeleted {
			e.Action = domain.ActionCurrencyDeleted
			e.Description = b.loc.Sprintf(i18n.LogCurrencyDeleted, p.Currency.Code)
			e.OldValue = p.Currency
		} else {
			e.Action = domain.ActionCurrencyCreated
			e.Description = b.loc.Sprintf(i18n.LogCurrencyCreated, p.Currency.Code)
			e.NewValue = p.Currency
		}
		return Record{Entry: e}, true

	case events.CurrencyUpdatedPayload:
		e := base
		e.Action = domain.ActionCurrencyUpdated
		e.TargetID, e.TargetType = p.After.Code, domain.TargetCurrency
		e.Description = b.loc.Sprintf(i18n.LogCurrencyUpdated, p.After.Code, Summarize(DiffCurrency(p.Before, p.After)))
		e.OldValue, e.NewValue = p.Before, p.After
		return Record{Entry: e}, true

	case events.ServicePayload:
		e := base
		e.Action = domain.ActionServiceCreated
		e.TargetID, e.TargetType = p.Service.ID, domain.TargetService
		e.Description = b.loc.Sprintf(i18n.LogServiceCreated, p.Service.Name)
		e.NewValue = p.Service
		return Record{Entry: e}, true

	case events.ServiceUpdatedPayload:
		e := base
		e.Action = domain.ActionServiceUpdated
		e.TargetID, e.TargetType = p.After.ID, domain.TargetService
		e.Description = b.loc.Sprintf(i18n.LogServiceUpdated, p.After.Name, Summarize(DiffService(p.Before, p.After)))
		e.OldValue, e.NewValue = p.Before, p.After
		return Record{Entry: e}, true
	}
	return Record{}, false
}

func (b *Builder) withTicketLog(e domain.LogEntry, ticketID string, changes []domain.FieldChange) Record {
	return Record{
		Entry: e,
		TicketLog: &domain.TicketLog{
			ID:              e.ID,
			TicketID:        ticketID,
			Action:          e.Action,
			PerformedBy:     e.PerformedBy,
			PerformedByName: e.PerformedByName,
			Description:     e.Description,
			Changes:         changes,
			Timestamp:       e.Timestamp,
		},
	}
}

func balanceMetadata(c events.BalanceChange) map[string]any {
	return map[string]any{
		"operation":     string(c.Op),
		"amount":        c.Amount,
		"inputCurrency": c.InputCurrency,
	}
}

func displayName(u domain.AppUser) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
