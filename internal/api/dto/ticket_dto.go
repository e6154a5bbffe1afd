package dto

import (
	"time"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

// CreateTicketRequest payload. Amounts are in Currency; PayerUserID
// defaults to the caller.
type CreateTicketRequest struct {
	TicketNumber  string             `json:"ticket_number" validate:"required,max=64"`
	AgentID       string             `json:"agent_id" validate:"required"`
	PayerUserID   string             `json:"payer_user_id"`
	PaidAmount    float64            `json:"paid_amount" validate:"gte=0"`
	AmountDue     float64            `json:"amount_due" validate:"gte=0"`
	Currency      string             `json:"currency" validate:"omitempty,len=3,alpha"`
	PaymentMode   domain.PaymentMode `json:"payment_mode" validate:"omitempty,oneof=full partial"`
	PartialAmount *float64           `json:"partial_amount" validate:"required_if=PaymentMode partial,omitempty,gte=0"`
}

// UpdateTicketRequest payload. Omitted fields are unchanged; amounts are
// in Currency.
type UpdateTicketRequest struct {
	AmountDue      *float64 `json:"amount_due" validate:"omitempty,gte=0"`
	PartialPayment *float64 `json:"partial_payment" validate:"omitempty,gte=0"`
	IsPaid         *bool    `json:"is_paid"`
	IsClosed       *bool    `json:"is_closed"`
	Currency       string   `json:"currency" validate:"omitempty,len=3,alpha"`
}

// Patch converts the request into a typed ticket patch.
func (r UpdateTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		AmountDue:      r.AmountDue,
		PartialPayment: r.PartialPayment,
		IsPaid:         r.IsPaid,
		IsClosed:       r.IsClosed,
	}
}

// CreateServiceTicketRequest payload.
type CreateServiceTicketRequest struct {
	CreateTicketRequest
	ServiceID string `json:"service_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// UpdateServiceTicketRequest payload.
type UpdateServiceTicketRequest struct {
	UpdateTicketRequest
	Quantity *int `json:"quantity" validate:"omitempty,gte=0"`
}

// Money pairs a base amount with its rendering in the viewer's currency.
type Money struct {
	Base    float64 `json:"base"`
	Display string  `json:"display"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID              string               `json:"id"`
	TicketNumber    string               `json:"ticket_number"`
	AgentID         string               `json:"agent_id"`
	CreatedByUserID string               `json:"created_by_user_id"`
	AmountDue       Money                `json:"amount_due"`
	PaidAmount      Money                `json:"paid_amount"`
	PartialPayment  Money                `json:"partial_payment"`
	Outstanding     Money                `json:"outstanding"`
	IsPaid          bool                 `json:"is_paid"`
	IsClosed        bool                 `json:"is_closed"`
	Status          domain.PaymentStatus `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ServiceTicketResponse represents a service ticket.
type ServiceTicketResponse struct {
	TicketResponse
	ServiceID        string `json:"service_id"`
	ServiceName      string `json:"service_name"`
	ServiceBasePrice Money  `json:"service_base_price"`
	Quantity         int    `json:"quantity"`
}

// ServicePatch converts the request into a typed service ticket patch.
func (r UpdateServiceTicketRequest) ServicePatch() domain.ServiceTicketPatch {
	return domain.ServiceTicketPatch{TicketPatch: r.Patch(), Quantity: r.Quantity}
}
