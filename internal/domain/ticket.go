package domain

import "time"

// PaymentStatus is the derived payment state of a ticket.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusClosed        PaymentStatus = "CLOSED"
)

// PaymentMode selects how a new ticket is settled.
type PaymentMode string

const (
	PaymentModeFull    PaymentMode = "full"
	PaymentModePartial PaymentMode = "partial"
)

// Ticket is an issued travel ticket. Monetary fields are in base currency.
type Ticket struct {
	ID              string    `json:"id"`
	AgentID         string    `json:"agentId"`
	CreatedByUserID string    `json:"createdByUserId"`
	TicketNumber    string    `json:"ticketNumber"`
	AmountDue       float64   `json:"amountDue"`
	PaidAmount      float64   `json:"paidAmount"`
	PartialPayment  float64   `json:"partialPayment,omitempty"`
	IsPaid          bool      `json:"isPaid"`
	IsClosed        bool      `json:"isClosed,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Remaining is the amount still owed on the ticket as stored.
func (t Ticket) Remaining() float64 {
	return t.AmountDue - t.PartialPayment
}

// OutstandingDebt is the ticket's contribution to aggregate debt. A paid
// ticket contributes nothing regardless of a stale partial payment.
func (t Ticket) OutstandingDebt() float64 {
	if t.IsPaid {
		return 0
	}
	return t.Remaining()
}

// Collected is the amount counted as paid for aggregate reporting.
func (t Ticket) Collected() float64 {
	if t.IsPaid {
		return t.AmountDue
	}
	return t.PartialPayment
}

// Status derives the payment state. Closed takes precedence.
func (t Ticket) Status() PaymentStatus {
	switch {
	case t.IsClosed:
		return PaymentStatusClosed
	case t.IsPaid:
		return PaymentStatusPaid
	case t.PartialPayment > 0:
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}

// TicketPatch lists the fields an update may change. Nil means unchanged.
// Amounts are expressed in the currency named on the update request.
type TicketPatch struct {
	AmountDue      *float64 `json:"amountDue,omitempty"`
	PartialPayment *float64 `json:"partialPayment,omitempty"`
	IsPaid         *bool    `json:"isPaid,omitempty"`
	IsClosed       *bool    `json:"isClosed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.AmountDue == nil && p.PartialPayment == nil && p.IsPaid == nil && p.IsClosed == nil
}
