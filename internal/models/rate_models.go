package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate курс пары валют. Новая запись по той же паре вытесняет старую, но не удаляет её.
type ExchangeRate struct {
	ID           uuid.UUID       `json:"id"`
	Base         Currency        `json:"base"`
	Target       Currency        `json:"target"`
	Rate         decimal.Decimal `json:"rate"`
	BuyRate      decimal.Decimal `json:"buy_rate"`
	SellRate     decimal.Decimal `json:"sell_rate"`
	EffectiveAt  time.Time       `json:"effective_at"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	SupersededAt *time.Time      `json:"superseded_at,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// UsableAt reports whether the rate may be used at the given instant.
func (r *ExchangeRate) UsableAt(at time.Time) bool {
	if r.EffectiveAt.After(at) {
		return false
	}
	return r.ExpiresAt == nil || at.Before(*r.ExpiresAt)
}

// SetRateRequest административная установка курса
type SetRateRequest struct {
	Base        Currency   `json:"base"`
	Target      Currency   `json:"target"`
	Rate        string     `json:"rate"`
	BuyRate     string     `json:"buy_rate,omitempty"`
	SellRate    string     `json:"sell_rate,omitempty"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ResolvedRateResponse ответ на запрос курса
type ResolvedRateResponse struct {
	Base     Currency        `json:"base"`
	Target   Currency        `json:"target"`
	Rate     decimal.Decimal `json:"rate"`
	Fallback bool            `json:"fallback,omitempty"`
}

// ExchangeRatesResponse ответ с курсами валют
type ExchangeRatesResponse struct {
	Rates []*ExchangeRate `json:"rates"`
}
