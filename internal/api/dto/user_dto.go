package dto

import (
	"time"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

// UserResponse represents an application user.
type UserResponse struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	PhotoURL          string      `json:"photo_url,omitempty"`
	Role              domain.Role `json:"role"`
	UserBalance       float64     `json:"user_balance"`
	UserBalanceText   string      `json:"user_balance_display"`
	PreferredCurrency string      `json:"preferred_currency"`
	CreatedAt         time.Time   `json:"created_at"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=admin agent"`
}

// PreferredCurrencyRequest payload.
type PreferredCurrencyRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

// BalanceRequest adjusts an agent balance or a user's credit.
type BalanceRequest struct {
	Op       domain.BalanceOp `json:"op" validate:"required,oneof=set add subtract"`
	Amount   float64          `json:"amount"`
	Currency string           `json:"currency" validate:"omitempty,len=3,alpha"`
}

// UserStatsResponse reports derived debt.
type UserStatsResponse struct {
	domain.UserStats
	Display map[string]string `json:"display"`
}
