package dto

// CreateCurrencyRequest payload.
type CreateCurrencyRequest struct {
	Code         string  `json:"code" validate:"required,len=3,alpha"`
	Name         string  `json:"name" validate:"required"`
	Symbol       string  `json:"symbol" validate:"required"`
	ExchangeRate float64 `json:"exchange_rate" validate:"gt=0"`
}

// UpdateCurrencyRequest payload. Omitted fields are unchanged.
type UpdateCurrencyRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1"`
	Symbol       *string  `json:"symbol" validate:"omitempty,min=1"`
	ExchangeRate *float64 `json:"exchange_rate" validate:"omitempty,gt=0"`
	IsActive     *bool    `json:"is_active"`
}

// CreateServiceRequest payload.
type CreateServiceRequest struct {
	Name      string  `json:"name" validate:"required,max=120"`
	BasePrice float64 `json:"base_price" validate:"gte=0"`
	Currency  string  `json:"currency" validate:"omitempty,len=3,alpha"`
}

// UpdateServiceRequest payload. Omitted fields are unchanged.
type UpdateServiceRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=120"`
	BasePrice *float64 `json:"base_price" validate:"omitempty,gte=0"`
	Currency  string   `json:"currency" validate:"omitempty,len=3,alpha"`
	IsActive  *bool    `json:"is_active"`
}
