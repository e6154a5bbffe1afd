// Package currency converts monetary amounts between currencies through
// the base currency and renders them for display.
package currency

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

// InvalidCurrencyError reports a currency that cannot take part in a
// conversion.
type InvalidCurrencyError struct {
	Code   string
	Reason string
}

func (e *InvalidCurrencyError) Error() string {
	if e.Code == "" {
		return "invalid currency: " + e.Reason
	}
	return fmt.Sprintf("invalid currency %q: %s", e.Code, e.Reason)
}

func validate(c domain.Currency) error {
	if math.IsNaN(c.ExchangeRate) || math.IsInf(c.ExchangeRate, 0) || c.ExchangeRate <= 0 {
		return &InvalidCurrencyError{Code: c.Code, Reason: "exchange rate must be positive"}
	}
	return nil
}

// ToBase converts an amount expressed in c into base currency.
func ToBase(amount float64, c domain.Currency) (float64, error) {
	if err := validate(c); err != nil {
		return 0, err
	}
	return amount / c.ExchangeRate, nil
}

// FromBase converts a base-currency amount into c.
func FromBase(amountBase float64, c domain.Currency) (float64, error) {
	if err := validate(c); err != nil {
		return 0, err
	}
	return amountBase * c.ExchangeRate, nil
}

// Convert converts an amount from one currency to another via base.
func Convert(amount float64, from, to domain.Currency) (float64, error) {
	base, err := ToBase(amount, from)
	if err != nil {
		return 0, err
	}
	return FromBase(base, to)
}

// Format renders amount with two decimals followed by the symbol. The
// sign precedes the magnitude: Format(-5.5, usd) == "-5.50 $".
func Format(amount float64, c domain.Currency) string {
	cents := math.Round(math.Abs(amount) * 100)
	sign := ""
	if amount < 0 && cents != 0 {
		sign = "-"
	}
	return sign + strconv.FormatFloat(cents/100, 'f', 2, 64) + " " + c.Symbol
}

// FormatFromBase converts a stored base amount into the viewer's
// currency and formats it.
func FormatFromBase(amountBase float64, viewer domain.Currency) (string, error) {
	amount, err := FromBase(amountBase, viewer)
	if err != nil {
		return "", err
	}
	return Format(amount, viewer), nil
}
