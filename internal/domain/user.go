package domain

import "time"

// Role is an application role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent
}

// AppUser is a back-office staff member. UserBalance is stored prepaid
// credit; debt is never stored and is derived through UserStats.
type AppUser struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PhotoURL          string    `json:"photoURL,omitempty"`
	Role              Role      `json:"role"`
	UserBalance       float64   `json:"userBalance"`
	PreferredCurrency string    `json:"preferredCurrency"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u AppUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats is debt aggregated from the tickets a user created.
type UserStats struct {
	UserID      string  `json:"userId"`
	UnpaidDebt  float64 `json:"unpaidDebt"`
	TotalPaid   float64 `json:"totalPaid"`
	TotalDue    float64 `json:"totalDue"`
	TicketCount int     `json:"ticketCount"`
}

// Identity is what the sign-in collaborator hands over.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}
