package domain

import "time"

// Service is a sellable non-ticket product (visa processing, insurance...).
// BasePrice is the house cost in base currency.
type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BasePrice float64   `json:"basePrice"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// ServiceTicket is a ticket sold against a Service.
type ServiceTicket struct {
	Ticket
	ServiceID        string  `json:"serviceId"`
	ServiceName      string  `json:"serviceName"`
	ServiceBasePrice float64 `json:"serviceBasePrice"`
	Quantity         int     `json:"quantity,omitempty"`
}

// EffectiveQuantity treats an unset quantity as one unit.
func (s ServiceTicket) EffectiveQuantity() int {
	if s.Quantity <= 0 {
		return 1
	}
	return s.Quantity
}

// MinimumDue is the lowest amount due the ticket may carry.
func (s ServiceTicket) MinimumDue() float64 {
	return s.ServiceBasePrice * float64(s.EffectiveQuantity())
}

// ServiceTicketPatch extends TicketPatch with the quantity.
type ServiceTicketPatch struct {
	TicketPatch
	Quantity *int `json:"quantity,omitempty"`
}
