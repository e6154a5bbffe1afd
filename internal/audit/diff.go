package audit

import (
	"fmt"
	"strings"

	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
)

// Patchable ticket fields, in the order changes are reported.
const (
	FieldAmountDue      = "amountDue"
	FieldPartialPayment = "partialPayment"
	FieldIsPaid         = "isPaid"
	FieldIsClosed       = "isClosed"
	FieldQuantity       = "quantity"
)

// DiffTicket lists every patchable field whose value differs.
func DiffTicket(before, after domain.Ticket) []domain.FieldChange {
	var changes []domain.FieldChange
	if before.AmountDue != after.AmountDue {
		changes = append(changes, domain.FieldChange{Field: FieldAmountDue, OldValue: before.AmountDue, NewValue: after.AmountDue})
	}
	if before.PartialPayment != after.PartialPayment {
		changes = append(changes, domain.FieldChange{Field: FieldPartialPayment, OldValue: before.PartialPayment, NewValue: after.PartialPayment})
	}
	if before.IsPaid != after.IsPaid {
		changes = append(changes, domain.FieldChange{Field: FieldIsPaid, OldValue: before.IsPaid, NewValue: after.IsPaid})
	}
	if before.IsClosed != after.IsClosed {
		changes = append(changes, domain.FieldChange{Field: FieldIsClosed, OldValue: before.IsClosed, NewValue: after.IsClosed})
	}
	return changes
}

// DiffServiceTicket extends DiffTicket with the quantity.
func DiffServiceTicket(before, after domain.ServiceTicket) []domain.FieldChange {
	changes := DiffTicket(before.Ticket, after.Ticket)
	if before.EffectiveQuantity() != after.EffectiveQuantity() {
		changes = append(changes, domain.FieldChange{Field: FieldQuantity, OldValue: before.EffectiveQuantity(), NewValue: after.EffectiveQuantity()})
	}
	return changes
}

// DiffCurrency lists changed currency attributes.
func DiffCurrency(before, after domain.Currency) []domain.FieldChange {
	var changes []domain.FieldChange
	if before.Name != after.Name {
		changes = append(changes, domain.FieldChange{Field: "name", OldValue: before.Name, NewValue: after.Name})
	}
	if before.Symbol != after.Symbol {
		changes = append(changes, domain.FieldChange{Field: "symbol", OldValue: before.Symbol, NewValue: after.Symbol})
	}
	if before.ExchangeRate != after.ExchangeRate {
		changes = append(changes, domain.FieldChange{Field: "exchangeRate", OldValue: before.ExchangeRate, NewValue: after.ExchangeRate})
	}
	if before.IsActive != after.IsActive {
		changes = append(changes, domain.FieldChange{Field: "isActive", OldValue: before.IsActive, NewValue: after.IsActive})
	}
	return changes
}

// DiffService lists changed service attributes.
func DiffService(before, after domain.Service) []domain.FieldChange {
	var changes []domain.FieldChange
	if before.Name != after.Name {
		changes = append(changes, domain.FieldChange{Field: "name", OldValue: before.Name, NewValue: after.Name})
	}
	if before.BasePrice != after.BasePrice {
		changes = append(changes, domain.FieldChange{Field: "basePrice", OldValue: before.BasePrice, NewValue: after.BasePrice})
	}
	if before.IsActive != after.IsActive {
		changes = append(changes, domain.FieldChange{Field: "isActive", OldValue: before.IsActive, NewValue: after.IsActive})
	}
	return changes
}

var moneyFields = map[string]bool{
	FieldAmountDue:      true,
	FieldPartialPayment: true,
	"basePrice":         true,
}

// Summarize renders changes as "field: old → new" pairs. Monetary fields
// are shown in base currency.
func Summarize(changes []domain.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s → %s", c.Field, render(c.Field, c.OldValue), render(c.Field, c.NewValue)))
	}
	return strings.Join(parts, ", ")
}

func render(field string, v any) string {
	if f, ok := v.(float64); ok && moneyFields[field] {
		return currency.Format(f, currency.BaseCurrency())
	}
	return fmt.Sprint(v)
}
