package currency

import (
	"sort"
	"strings"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

// Table is an immutable snapshot of the configured currencies keyed by
// upper-cased code.
type Table struct {
	byCode map[string]domain.Currency
}

// NewTable indexes currencies by code.
func NewTable(currencies []domain.Currency) *Table {
	t := &Table{byCode: make(map[string]domain.Currency, len(currencies))}
	for _, c := range currencies {
		t.byCode[strings.ToUpper(c.Code)] = c
	}
	return t
}

// Lookup returns the active currency for code. The base currency is
// always considered active.
func (t *Table) Lookup(code string) (domain.Currency, error) {
	code = NormalizeCode(code)
	if code == "" {
		return domain.Currency{}, &InvalidCurrencyError{Reason: "currency code required"}
	}
	c, ok := t.byCode[code]
	if !ok {
		return domain.Currency{}, &InvalidCurrencyError{Code: code, Reason: "unknown currency"}
	}
	if !c.IsActive && !c.IsBase() {
		return domain.Currency{}, &InvalidCurrencyError{Code: code, Reason: "currency is inactive"}
	}
	if err := validate(c); err != nil {
		return domain.Currency{}, err
	}
	return c, nil
}

// Base returns the base currency, falling back to a unit-rate USD record
// when the table has none.
func (t *Table) Base() domain.Currency {
	if c, ok := t.byCode[domain.BaseCurrencyCode]; ok {
		return c
	}
	return BaseCurrency()
}

// ForViewer resolves the display currency for a preferred code, using
// base when the preference is empty or unusable.
func (t *Table) ForViewer(preferred string) domain.Currency {
	if c, err := t.Lookup(preferred); err == nil {
		return c
	}
	return t.Base()
}

// All returns the currencies sorted by code.
func (t *Table) All() []domain.Currency {
	out := make([]domain.Currency, 0, len(t.byCode))
	for _, c := range t.byCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// BaseCurrency is the seed record for the base currency.
func BaseCurrency() domain.Currency {
	return domain.Currency{
		Code:         domain.BaseCurrencyCode,
		Name:         "US Dollar",
		Symbol:       "$",
		ExchangeRate: 1,
		IsActive:     true,
	}
}
