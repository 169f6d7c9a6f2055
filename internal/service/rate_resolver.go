package service

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultRateCacheTTL = 5 * time.Minute
	inverseRateScale    = 10
)

// RateStore источник курсов: postgres или удалённый exchanger по gRPC
type RateStore interface {
	GetCurrentRate(ctx context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error)
}

type cachedRate struct {
	rate       decimal.Decimal
	resolvedAt time.Time
	validUntil time.Time
}

// RateResolver находит курс пары с кэшем и обращением пары.
// Resolver never substitutes a default rate: a missing pair is ErrRateNotFound.
type RateResolver struct {
	store   RateStore
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedRate
}

func NewRateResolver(store RateStore, ttl, timeout time.Duration, log *slog.Logger) *RateResolver {
	if ttl <= 0 {
		ttl = DefaultRateCacheTTL
	}
	return &RateResolver{
		store:   store,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
		log:     log,
		cache:   make(map[string]cachedRate),
	}
}

func cacheKey(base, target models.Currency) string {
	return fmt.Sprintf("%s_%s", base, target)
}

func (r *RateResolver) Resolve(ctx context.Context, base, target models.Currency) (decimal.Decimal, error) {
	const op = "service.RateResolver.Resolve"

	if !base.IsValid() {
		return decimal.Zero, custom_err.NewValidationErrorKind("base", fmt.Sprintf("unsupported currency code %q", base), custom_err.ErrInvalidCurrency)
	}
	if !target.IsValid() {
		return decimal.Zero, custom_err.NewValidationErrorKind("target", fmt.Sprintf("unsupported currency code %q", target), custom_err.ErrInvalidCurrency)
	}
	if base == target {
		return decimal.NewFromInt(1), nil
	}

	now := r.now()
	key := cacheKey(base, target)

	r.mu.RLock()
	if cached, ok := r.cache[key]; ok && now.Before(cached.validUntil) {
		r.mu.RUnlock()
		r.log.Debug("курс взят из кэша",
			slog.String("op", op),
			slog.String("pair", key),
			slog.String("rate", cached.rate.String()),
			slog.Duration("age", now.Sub(cached.resolvedAt)))
		return cached.rate, nil
	}
	r.mu.RUnlock()

	rate, expiresAt, err := r.lookup(ctx, base, target, now)
	if err != nil {
		return decimal.Zero, err
	}

	validUntil := now.Add(r.ttl)
	if expiresAt != nil && expiresAt.Before(validUntil) {
		validUntil = *expiresAt
	}

	r.mu.Lock()
	r.cache[key] = cachedRate{rate: rate, resolvedAt: now, validUntil: validUntil}
	r.mu.Unlock()

	r.log.Debug("курс обновлен в кэше",
		slog.String("op", op),
		slog.String("pair", key),
		slog.String("rate", rate.String()))

	return rate, nil
}

// lookup прямая пара, затем обратная с инверсией
func (r *RateResolver) lookup(ctx context.Context, base, target models.Currency, at time.Time) (decimal.Decimal, *time.Time, error) {
	const op = "service.RateResolver.lookup"

	direct, err := r.fetch(ctx, base, target, at)
	if err == nil {
		return direct.Rate, direct.ExpiresAt, nil
	}
	if !errors.Is(err, custom_err.ErrNotFound) {
		return decimal.Zero, nil, fmt.Errorf("%s: %w", op, err)
	}

	inverse, err := r.fetch(ctx, target, base, at)
	if err == nil {
		if !inverse.Rate.IsPositive() {
			return decimal.Zero, nil, fmt.Errorf("%s: non-positive stored rate %s/%s", op, target, base)
		}
		return decimal.NewFromInt(1).DivRound(inverse.Rate, inverseRateScale), inverse.ExpiresAt, nil
	}
	if !errors.Is(err, custom_err.ErrNotFound) {
		return decimal.Zero, nil, fmt.Errorf("%s: %w", op, err)
	}

	return decimal.Zero, nil, fmt.Errorf("%w: %s/%s", custom_err.ErrRateNotFound, base, target)
}

func (r *RateResolver) fetch(ctx context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error) {
	const op = "service.RateResolver.fetch"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rate, err := r.store.GetCurrentRate(ctx, base, target, at)
	if err != nil {
		return nil, upstreamErr(op, err)
	}
	if !rate.UsableAt(at) {
		return nil, custom_err.ErrNotFound
	}
	return rate, nil
}

// Invalidate удаляет из кэша оба направления пары
func (r *RateResolver) Invalidate(base, target models.Currency) {
	r.mu.Lock()
	delete(r.cache, cacheKey(base, target))
	delete(r.cache, cacheKey(target, base))
	r.mu.Unlock()
}

// Sweep удаляет просроченные записи и возвращает их число
func (r *RateResolver) Sweep() int {
	now := r.now()
	removed := 0

	r.mu.Lock()
	for key, cached := range r.cache {
		if !now.Before(cached.validUntil) {
			delete(r.cache, key)
			removed++
		}
	}
	r.mu.Unlock()

	return removed
}

func (r *RateResolver) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.log.Debug("очистка кэша курсов", slog.Int("removed", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
