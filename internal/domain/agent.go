package domain

import "time"

// Agent is a sales agent collecting payments on behalf of the house.
// Balance is kept in base currency and may go negative.
type Agent struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Balance           float64   `json:"balance"`
	PreferredCurrency string    `json:"preferredCurrency"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
