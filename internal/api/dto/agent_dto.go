package dto

import (
	"time"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name              string  `json:"name" validate:"required,max=120"`
	OpeningBalance    float64 `json:"opening_balance"`
	Currency          string  `json:"currency" validate:"omitempty,len=3,alpha"`
	PreferredCurrency string  `json:"preferred_currency" validate:"omitempty,len=3,alpha"`
}

// AgentResponse represents an agent with its balance in the viewer's currency.
type AgentResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Balance           float64   `json:"balance"`
	BalanceText       string    `json:"balance_display"`
	PreferredCurrency string    `json:"preferred_currency"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AgentSummaryResponse adds ticket totals.
type AgentSummaryResponse struct {
	Agent           AgentResponse     `json:"agent"`
	TicketCount     int               `json:"ticket_count"`
	TotalDue        float64           `json:"total_due"`
	Collected       float64           `json:"collected"`
	OutstandingDebt float64           `json:"outstanding_debt"`
	Display         map[string]string `json:"display"`
}

// AgentFromDomain is used by list and detail endpoints.
func AgentFromDomain(a domain.Agent, balanceText string) AgentResponse {
	return AgentResponse{
		ID:                a.ID,
		Name:              a.Name,
		Balance:           a.Balance,
		BalanceText:       balanceText,
		PreferredCurrency: a.PreferredCurrency,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
