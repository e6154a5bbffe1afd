package domain

import "time"

// BaseCurrencyCode is the currency every monetary field is persisted in.
const BaseCurrencyCode = "USD"

// Currency is administrator-curated reference data. ExchangeRate is the
// number of units of this currency per one unit of the base currency.
type Currency struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	ExchangeRate float64   `json:"exchangeRate"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsBase reports whether c is the base currency record.
func (c Currency) IsBase() bool {
	return c.Code == BaseCurrencyCode
}
