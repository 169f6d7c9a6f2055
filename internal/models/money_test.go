package models

import (
	"encoding/json"
	"testing"

	"gw-teller-ledger/internal/custom_err"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_Precision(t *testing.T) {
	assert.Equal(t, int32(2), CurrencyUSD.Precision())
	assert.Equal(t, int32(0), CurrencyJPY.Precision())
	assert.Equal(t, int32(3), CurrencyKWD.Precision())
	assert.Equal(t, int32(2), Currency("CHF").Precision())
}

func TestCurrency_IsValid(t *testing.T) {
	assert.True(t, CurrencyEUR.IsValid())
	assert.False(t, Currency("eur").IsValid())
	assert.False(t, Currency("EU").IsValid())
	assert.False(t, Currency("EURO").IsValid())
	assert.False(t, Currency("E1R").IsValid())
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency Currency
		want     string
		kind     error
	}{
		{"scales to precision", "10", CurrencyUSD, "10.00 USD", nil},
		{"trailing zeros allowed", "10.500", CurrencyUSD, "10.50 USD", nil},
		{"jpy integer", "1500", CurrencyJPY, "1500 JPY", nil},
		{"kwd three places", "1.125", CurrencyKWD, "1.125 KWD", nil},
		{"too many places", "10.005", CurrencyUSD, "", custom_err.ErrInvalidAmount},
		{"jpy fraction", "1.5", CurrencyJPY, "", custom_err.ErrInvalidAmount},
		{"garbage", "1,5", CurrencyUSD, "", custom_err.ErrInvalidAmount},
		{"bad currency", "1", Currency("usd"), "", custom_err.ErrInvalidCurrency},
		{"largest storable usd", "92233720368547758.07", CurrencyUSD, "92233720368547758.07 USD", nil},
		{"beyond int64 minor units", "92233720368547758.08", CurrencyUSD, "", custom_err.ErrInvalidAmount},
		{"huge amount", "100000000000000000000", CurrencyUSD, "", custom_err.ErrInvalidAmount},
		{"largest storable jpy", "9223372036854775807", CurrencyJPY, "9223372036854775807 JPY", nil},
		{"negative beyond int64", "-92233720368547758.09", CurrencyUSD, "", custom_err.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMoney(tt.amount, tt.currency)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
				assert.ErrorIs(t, err, custom_err.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := ParseMoney("10.10", CurrencyUSD)
	b, _ := ParseMoney("0.20", CurrencyUSD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.30", sum.StringFixed())

	diff, err := b.Subtract(a)
	require.NoError(t, err)
	assert.Equal(t, "-9.90", diff.StringFixed())
	assert.True(t, diff.IsNegative())

	eur := ZeroMoney(CurrencyEUR)
	_, err = a.Add(eur)
	assert.ErrorIs(t, err, custom_err.ErrCurrencyMismatch)
	_, err = a.Subtract(eur)
	assert.ErrorIs(t, err, custom_err.ErrCurrencyMismatch)
	_, err = a.Cmp(eur)
	assert.ErrorIs(t, err, custom_err.ErrCurrencyMismatch)
}

func TestMoney_MultiplyRoundsHalfToEven(t *testing.T) {
	tests := []struct {
		amount string
		factor string
		want   string
	}{
		{"0.25", "0.1", "0.02"},
		{"0.35", "0.1", "0.04"},
		{"1000.00", "0.03", "30.00"},
		{"970.00", "0.92", "892.40"},
	}

	for _, tt := range tests {
		m, _ := ParseMoney(tt.amount, CurrencyUSD)
		got := m.Multiply(decimal.RequireFromString(tt.factor))
		assert.Equal(t, tt.want, got.StringFixed(), "%s * %s", tt.amount, tt.factor)
	}
}

func TestMoney_Convert(t *testing.T) {
	usd, _ := ParseMoney("970", CurrencyUSD)

	eur := usd.Convert(decimal.RequireFromString("0.92"), CurrencyEUR)
	jpy := usd.Convert(decimal.RequireFromString("150.123"), CurrencyJPY)

	assert.Equal(t, "892.40 EUR", eur.String())
	assert.Equal(t, "145619 JPY", jpy.String())
}

func TestMoney_MinorUnits(t *testing.T) {
	usd, _ := ParseMoney("1250.50", CurrencyUSD)
	kwd, _ := ParseMoney("-3.005", CurrencyKWD)

	assert.Equal(t, int64(125050), usd.MinorUnits())
	assert.Equal(t, int64(-3005), kwd.MinorUnits())
	assert.True(t, MoneyFromMinorUnits(125050, CurrencyUSD).Equal(usd))
	assert.Equal(t, "15000 JPY", MoneyFromMinorUnits(15000, CurrencyJPY).String())
}

func TestMoney_MinorUnitsRoundTripAtBounds(t *testing.T) {
	for _, raw := range []string{"92233720368547758.07", "-92233720368547758.08", "0.01"} {
		m, err := ParseMoney(raw, CurrencyUSD)
		require.NoError(t, err)
		assert.True(t, m.FitsMinorUnits())
		assert.True(t, MoneyFromMinorUnits(m.MinorUnits(), CurrencyUSD).Equal(m), raw)
	}

	sum, err := mustParse(t, "92233720368547758.00").Add(mustParse(t, "8.00"))
	require.NoError(t, err)
	assert.False(t, sum.FitsMinorUnits())
}

func mustParse(t *testing.T, raw string) Money {
	t.Helper()
	m, err := ParseMoney(raw, CurrencyUSD)
	require.NoError(t, err)
	return m
}

func TestMoney_JSON(t *testing.T) {
	m, _ := ParseMoney("892.40", CurrencyEUR)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"892.40","currency":"EUR"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(m))

	err = json.Unmarshal([]byte(`{"amount":"1.001","currency":"EUR"}`), &back)
	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)
}
