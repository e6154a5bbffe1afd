package service

import (
	"context"
	"strings"

	"github.com/spec-kit/agency-ledger/internal/currency"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// PaymentInput is the money part of a ticket creation, expressed in the
// input currency.
type PaymentInput struct {
	PaidAmount    float64
	AmountDue     float64
	Currency      string
	PaymentMode   domain.PaymentMode
	PartialAmount *float64
}

// settlement is a PaymentInput converted to base currency.
type settlement struct {
	currency    domain.Currency
	paidBase    float64
	dueBase     float64
	partialBase float64
	isPaid      bool
}

func (p PaymentInput) validate() error {
	if err := validateNonNegative("paidAmount", p.PaidAmount); err != nil {
		return err
	}
	if err := validateNonNegative("amountDue", p.AmountDue); err != nil {
		return err
	}
	switch p.PaymentMode {
	case domain.PaymentModeFull, "":
	case domain.PaymentModePartial:
		if p.PartialAmount == nil {
			return errorutil.NewValidationError("partial amount required for partial payment", map[string]any{"field": "partialAmount"})
		}
		if err := validateNonNegative("partialAmount", *p.PartialAmount); err != nil {
			return err
		}
		if *p.PartialAmount > p.AmountDue {
			return errorutil.NewValidationError("partial payment exceeds amount due", map[string]any{
				"partialAmount": *p.PartialAmount,
				"amountDue":     p.AmountDue,
			})
		}
	default:
		return errorutil.NewValidationError("unknown payment mode", map[string]any{"paymentMode": p.PaymentMode})
	}
	return nil
}

// settle converts the input amounts and decides the payment state. Tickets
// paid by an administrator are always settled.
func (p PaymentInput) settle(c domain.Currency, payer domain.AppUser) (settlement, error) {
	s := settlement{currency: c}
	var err error
	if s.paidBase, err = currency.ToBase(p.PaidAmount, c); err != nil {
		return s, errorutil.WrapValidation("invalid currency", err)
	}
	if s.dueBase, err = currency.ToBase(p.AmountDue, c); err != nil {
		return s, errorutil.WrapValidation("invalid currency", err)
	}
	partial := p.PaymentMode == domain.PaymentModePartial && !payer.IsAdmin()
	if partial {
		if s.partialBase, err = currency.ToBase(*p.PartialAmount, c); err != nil {
			return s, errorutil.WrapValidation("invalid currency", err)
		}
	}
	s.isPaid, s.partialBase = normalizePayment(s.dueBase, s.partialBase, !partial)
	return s, nil
}

// normalizePayment folds a partial payment that covers the due amount into
// the paid state. A paid ticket carries no partial payment.
func normalizePayment(due, partial float64, isPaid bool) (bool, float64) {
	if isPaid {
		return true, 0
	}
	if partial > 0 && partial >= due-epsilon {
		return true, 0
	}
	return false, partial
}

// applyTicketPatch converts the patch from c into base currency and
// returns the updated ticket. Callers check the freeze rules first.
func applyTicketPatch(t domain.Ticket, patch domain.TicketPatch, c domain.Currency) (domain.Ticket, error) {
	out := t
	if patch.AmountDue != nil {
		if err := validateNonNegative("amountDue", *patch.AmountDue); err != nil {
			return t, err
		}
		v, err := currency.ToBase(*patch.AmountDue, c)
		if err != nil {
			return t, errorutil.WrapValidation("invalid currency", err)
		}
		out.AmountDue = v
	}
	if patch.PartialPayment != nil {
		if err := validateNonNegative("partialPayment", *patch.PartialPayment); err != nil {
			return t, err
		}
		v, err := currency.ToBase(*patch.PartialPayment, c)
		if err != nil {
			return t, errorutil.WrapValidation("invalid currency", err)
		}
		out.PartialPayment = v
		if patch.IsPaid == nil && v > 0 {
			out.IsPaid = false
		}
	}
	if patch.IsPaid != nil {
		out.IsPaid = *patch.IsPaid
	}
	if patch.IsClosed != nil {
		out.IsClosed = *patch.IsClosed
	}
	if !out.IsPaid && out.PartialPayment > out.AmountDue+epsilon {
		return t, errorutil.NewValidationError("partial payment exceeds amount due", map[string]any{
			"partialPayment": out.PartialPayment,
			"amountDue":      out.AmountDue,
		})
	}
	out.IsPaid, out.PartialPayment = normalizePayment(out.AmountDue, out.PartialPayment, out.IsPaid)
	return out, nil
}

// checkTicketAccess enforces the closed-ticket freeze for non-admins.
func checkTicketAccess(actor domain.Actor, t domain.Ticket, patch *domain.TicketPatch) error {
	if actor.IsAdmin() {
		return nil
	}
	if t.IsClosed {
		return errorutil.NewForbidden("ticket is closed")
	}
	if patch != nil && patch.IsClosed != nil && *patch.IsClosed != t.IsClosed {
		return errorutil.NewForbidden("only administrators may close tickets")
	}
	return nil
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errorutil.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return v, nil
}

// agentName resolves a display name for logs, falling back to the id.
func agentName(ctx context.Context, deps Dependencies, id string) string {
	if deps.AgentRepo == nil {
		return id
	}
	agent, err := deps.AgentRepo.GetByID(ctx, id)
	if err != nil || agent.Name == "" {
		return id
	}
	return agent.Name
}
