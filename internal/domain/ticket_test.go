package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatus(t *testing.T) {
	cases := []struct {
		name   string
		ticket Ticket
		want   PaymentStatus
	}{
		{"unpaid", Ticket{AmountDue: 100}, PaymentStatusUnpaid},
		{"partial", Ticket{AmountDue: 100, PartialPayment: 40}, PaymentStatusPartiallyPaid},
		{"paid", Ticket{AmountDue: 100, IsPaid: true}, PaymentStatusPaid},
		{"closed wins", Ticket{AmountDue: 100, IsPaid: true, IsClosed: true}, PaymentStatusClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ticket.Status())
		})
	}
}

func TestPaidTicketOwesNothing(t *testing.T) {
	ticket := Ticket{AmountDue: 100, PartialPayment: 30, IsPaid: true}
	assert.Equal(t, 0.0, ticket.OutstandingDebt())
	assert.Equal(t, 100.0, ticket.Collected())
	assert.Equal(t, 70.0, ticket.Remaining())
}

func TestServiceTicketMinimumDue(t *testing.T) {
	st := ServiceTicket{ServiceBasePrice: 50, Quantity: 3}
	assert.Equal(t, 150.0, st.MinimumDue())
	st.Quantity = 0
	assert.Equal(t, 50.0, st.MinimumDue())
}

func TestBalanceOpApply(t *testing.T) {
	assert.Equal(t, 20.0, BalanceOpSet.Apply(100, 20))
	assert.Equal(t, 120.0, BalanceOpAdd.Apply(100, 20))
	assert.Equal(t, -20.0, BalanceOpSubtract.Apply(10, 30))
}
