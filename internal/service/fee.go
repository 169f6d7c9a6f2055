package service

import (
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"sync"

	"github.com/shopspring/decimal"
)

// FeePolicy считает комиссию в валюте отправки
type FeePolicy interface {
	Compute(amount models.Money) models.Money
}

// FeePolicyFunc адаптер для партнёрских схем
type FeePolicyFunc func(amount models.Money) models.Money

func (f FeePolicyFunc) Compute(amount models.Money) models.Money {
	return f(amount)
}

// PercentageFee процент от суммы с необязательными границами
type PercentageFee struct {
	Rate decimal.Decimal
	Min  *decimal.Decimal
	Max  *decimal.Decimal
}

func (p PercentageFee) Compute(amount models.Money) models.Money {
	fee := amount.Amount.Mul(p.Rate)
	if p.Min != nil && fee.LessThan(*p.Min) {
		fee = *p.Min
	}
	if p.Max != nil && fee.GreaterThan(*p.Max) {
		fee = *p.Max
	}
	return models.NewMoney(fee, amount.Currency)
}

// FlatFee фиксированная сумма по валюте, для прочих валют комиссии нет
type FlatFee struct {
	Amounts map[models.Currency]decimal.Decimal
}

func (f FlatFee) Compute(amount models.Money) models.Money {
	if fee, ok := f.Amounts[amount.Currency]; ok {
		return models.NewMoney(fee, amount.Currency)
	}
	return models.ZeroMoney(amount.Currency)
}

// FeeTier ступень шкалы: суммы до UpTo включительно. Nil UpTo closes the schedule.
type FeeTier struct {
	UpTo   *decimal.Decimal
	Policy FeePolicy
}

// TieredFee применяет первую ступень, в которую попадает сумма. Tiers are ordered by UpTo.
type TieredFee struct {
	Tiers []FeeTier
}

func (t TieredFee) Compute(amount models.Money) models.Money {
	for _, tier := range t.Tiers {
		if tier.UpTo == nil || amount.Amount.LessThanOrEqual(*tier.UpTo) {
			return tier.Policy.Compute(amount)
		}
	}
	return models.ZeroMoney(amount.Currency)
}

// NewPercentageFee нулевые min/max означают отсутствие границы
func NewPercentageFee(rate, min, max decimal.Decimal) PercentageFee {
	p := PercentageFee{Rate: rate}
	if min.IsPositive() {
		p.Min = &min
	}
	if max.IsPositive() {
		p.Max = &max
	}
	return p
}

// FeeCalculator выбирает политику: явная, затем по направлению, затем по умолчанию
type FeeCalculator struct {
	defaultPolicy FeePolicy

	mu        sync.RWMutex
	corridors map[string]FeePolicy
}

func NewFeeCalculator(defaultPolicy FeePolicy) *FeeCalculator {
	return &FeeCalculator{
		defaultPolicy: defaultPolicy,
		corridors:     make(map[string]FeePolicy),
	}
}

func (c *FeeCalculator) SetCorridorPolicy(base, target models.Currency, policy FeePolicy) {
	c.mu.Lock()
	c.corridors[cacheKey(base, target)] = policy
	c.mu.Unlock()
}

func (c *FeeCalculator) policyFor(base, target models.Currency) FeePolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.corridors[cacheKey(base, target)]; ok {
		return p
	}
	return c.defaultPolicy
}

// Calculate комиссия в валюте отправки; 0 <= fee <= amount
func (c *FeeCalculator) Calculate(amount models.Money, base, target models.Currency, policy FeePolicy) (models.Money, error) {
	if policy == nil {
		policy = c.policyFor(base, target)
	}
	if policy == nil {
		return models.ZeroMoney(amount.Currency), nil
	}

	fee := policy.Compute(amount)
	if fee.Currency != amount.Currency {
		return models.Money{}, fmt.Errorf("%w: fee in %s for amount in %s", custom_err.ErrInvalidFee, fee.Currency, amount.Currency)
	}
	fee = models.NewMoney(fee.Amount, fee.Currency)
	if fee.IsNegative() {
		return models.Money{}, fmt.Errorf("%w: negative fee %s", custom_err.ErrInvalidFee, fee)
	}
	if fee.Amount.GreaterThan(amount.Amount) {
		return models.Money{}, fmt.Errorf("%w: fee %s exceeds amount %s", custom_err.ErrInvalidFee, fee, amount)
	}
	return fee, nil
}
