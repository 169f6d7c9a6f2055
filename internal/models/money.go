package models

import (
	"encoding/json"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"math"

	"github.com/shopspring/decimal"
)

// Currency is a three-letter uppercase ISO 4217-like code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
	CurrencyJPY Currency = "JPY"
	CurrencyKWD Currency = "KWD"
)

const defaultPrecision int32 = 2

var currencyPrecision = map[Currency]int32{
	"JPY": 0, "KRW": 0, "VND": 0, "CLP": 0, "ISK": 0, "UGX": 0, "XOF": 0, "XAF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// IsValid проверяет формат кода валюты
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// Precision returns the number of minor-unit digits for the currency.
func (c Currency) Precision() int32 {
	if p, ok := currencyPrecision[c]; ok {
		return p
	}
	return defaultPrecision
}

// Money is a fixed-point amount in a single currency. Amount is always held at the
// currency's minor-unit scale.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// NewMoney rounds amount half-to-even to the currency precision.
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount.RoundBank(currency.Precision()), Currency: currency}
}

func ZeroMoney(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// ParseMoney parses a decimal string. Amounts carrying more decimal places than the
// currency allows are rejected instead of being rounded.
func ParseMoney(amount string, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, custom_err.NewValidationErrorKind("currency", fmt.Sprintf("unsupported currency code %q", currency), custom_err.ErrInvalidCurrency)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, custom_err.NewValidationErrorKind("amount", fmt.Sprintf("not a decimal: %q", amount), custom_err.ErrInvalidAmount)
	}
	return MoneyFromDecimal(d, currency)
}

// MoneyFromDecimal is ParseMoney for an already parsed decimal.
func MoneyFromDecimal(d decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, custom_err.NewValidationErrorKind("currency", fmt.Sprintf("unsupported currency code %q", currency), custom_err.ErrInvalidCurrency)
	}
	if -d.Exponent() > currency.Precision() && !d.Equal(d.Truncate(currency.Precision())) {
		return Money{}, custom_err.NewValidationErrorKind("amount",
			fmt.Sprintf("%s allows at most %d decimal places", currency, currency.Precision()), custom_err.ErrInvalidAmount)
	}
	m := NewMoney(d, currency)
	if !m.FitsMinorUnits() {
		return Money{}, custom_err.NewValidationErrorKind("amount",
			fmt.Sprintf("%s exceeds the storable range for %s", d.String(), currency), custom_err.ErrInvalidAmount)
	}
	return m, nil
}

// MoneyFromMinorUnits конвертирует минимальные единицы в Money
func MoneyFromMinorUnits(units int64, currency Currency) Money {
	return Money{Amount: decimal.New(units, -currency.Precision()), Currency: currency}
}

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// FitsMinorUnits сумма представима в int64 минимальных единиц, так она хранится в БД
func (m Money) FitsMinorUnits() bool {
	units := m.Amount.Shift(m.Currency.Precision())
	return units.Cmp(maxMinorUnits) <= 0 && units.Cmp(minMinorUnits) >= 0
}

// MinorUnits конвертирует сумму в минимальные единицы. Вызывать только для сумм с FitsMinorUnits.
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(m.Currency.Precision()).RoundBank(0).IntPart()
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", custom_err.ErrCurrencyMismatch, other.Currency, m.Currency)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", custom_err.ErrCurrencyMismatch, other.Currency, m.Currency)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

// Multiply scales the amount and rounds half-to-even to the currency precision.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return NewMoney(m.Amount.Mul(factor), m.Currency)
}

// Convert is the only way to move an amount between currencies.
func (m Money) Convert(rate decimal.Decimal, target Currency) Money {
	return NewMoney(m.Amount.Mul(rate), target)
}

func (m Money) Cmp(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("%w: cannot compare %s and %s", custom_err.ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return m.Amount.Cmp(other.Amount), nil
}

func (m Money) IsNegative() bool { return m.Amount.IsNegative() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsZero() bool     { return m.Amount.IsZero() }

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// StringFixed renders the amount with exactly the currency's number of decimals.
func (m Money) StringFixed() string {
	return m.Amount.StringFixed(m.Currency.Precision())
}

func (m Money) String() string {
	return m.StringFixed() + " " + string(m.Currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON передаёт сумму строкой, чтобы не терять точность на транспорте
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.StringFixed(), Currency: m.Currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMoney(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
