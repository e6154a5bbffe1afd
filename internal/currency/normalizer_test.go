package currency

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agency-ledger/internal/domain"
)

var (
	usd = domain.Currency{Code: "USD", Symbol: "$", ExchangeRate: 1, IsActive: true}
	sar = domain.Currency{Code: "SAR", Symbol: "ر.س", ExchangeRate: 3.75, IsActive: true}
	eur = domain.Currency{Code: "EUR", Symbol: "€", ExchangeRate: 0.92, IsActive: true}
)

func TestToBase(t *testing.T) {
	got, err := ToBase(375, sar)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-9)
}

func TestRoundTrip(t *testing.T) {
	amounts := []float64{0, 0.01, 1, 99.99, 375, 123456.78, -42.5}
	for _, c := range []domain.Currency{usd, sar, eur} {
		for _, a := range amounts {
			base, err := ToBase(a, c)
			require.NoError(t, err)
			back, err := FromBase(base, c)
			require.NoError(t, err)
			assert.InDelta(t, a, back, 1e-9*math.Max(1, math.Abs(a)), "%s %v", c.Code, a)
		}
	}
}

func TestConvert(t *testing.T) {
	got, err := Convert(375, sar, eur)
	require.NoError(t, err)
	assert.InDelta(t, 92, got, 1e-9)
}

func TestInvalidRateRejected(t *testing.T) {
	bad := domain.Currency{Code: "XXX", ExchangeRate: 0}
	_, err := ToBase(10, bad)
	var invalid *InvalidCurrencyError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "XXX", invalid.Code)

	_, err = FromBase(10, domain.Currency{Code: "NAN", ExchangeRate: math.NaN()})
	require.Error(t, err)
	_, err = Convert(10, usd, domain.Currency{Code: "NEG", ExchangeRate: -1})
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "-5.50 $", Format(-5.5, usd))
	assert.Equal(t, "5.50 $", Format(5.5, usd))
	assert.Equal(t, "0.00 $", Format(-0.001, usd))
	assert.Equal(t, "1234.57 $", Format(1234.567, usd))
}

func TestFormatFromBaseForViewer(t *testing.T) {
	got, err := FormatFromBase(100, sar)
	require.NoError(t, err)
	assert.Equal(t, "375.00 ر.س", got)
}

func TestTableLookup(t *testing.T) {
	inactive := domain.Currency{Code: "GBP", Symbol: "£", ExchangeRate: 0.8}
	table := NewTable([]domain.Currency{usd, sar, inactive})

	c, err := table.Lookup(" sar ")
	require.NoError(t, err)
	assert.Equal(t, "SAR", c.Code)

	_, err = table.Lookup("GBP")
	require.Error(t, err)
	_, err = table.Lookup("JPY")
	require.Error(t, err)
	_, err = table.Lookup("")
	require.Error(t, err)

	assert.Equal(t, "USD", table.ForViewer("GBP").Code)
	assert.Equal(t, "SAR", table.ForViewer("SAR").Code)
	assert.Len(t, table.All(), 3)
}
