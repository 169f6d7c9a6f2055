package service

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/storage/postgres"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Rates interface {
	SetRate(ctx context.Context, actor models.Operator, req models.SetRateRequest) (*models.ExchangeRate, error)
	ListCurrent(ctx context.Context) ([]*models.ExchangeRate, error)
	Resolve(ctx context.Context, base, target models.Currency) (decimal.Decimal, error)
}

// RateService администрирование курсов. Новый курс вытесняет текущий, история сохраняется.
type RateService struct {
	repo      postgres.RateRepository
	txManager TxManager
	resolver  *RateResolver
	audit     AuditSink
	timeout   time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewRateService(repo postgres.RateRepository, txManager TxManager, resolver *RateResolver, audit AuditSink, timeout time.Duration, log *slog.Logger) *RateService {
	return &RateService{
		repo:      repo,
		txManager: txManager,
		resolver:  resolver,
		audit:     audit,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *RateService) SetRate(ctx context.Context, actor models.Operator, req models.SetRateRequest) (*models.ExchangeRate, error) {
	const op = "service.RateService.SetRate"

	rate, err := s.buildRate(actor, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var superseded int64
	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := s.repo.SupersedeRatesTx(ctx, tx, rate.Base, rate.Target, rate.EffectiveAt)
		if err != nil {
			return fmt.Errorf("failed to supersede rates: %w", err)
		}
		superseded = n
		return s.repo.CreateRateTx(ctx, tx, rate)
	})

	status := models.AuditSuccess
	details := fmt.Sprintf("%s/%s = %s", rate.Base, rate.Target, rate.Rate)
	if err != nil {
		status = models.AuditFailure
		details = err.Error()
	}
	s.audit.Record(ctx, newAuditEvent("RATE_SET", auditModuleRates, details, status, actor.ID, map[string]string{
		"base":       string(rate.Base),
		"target":     string(rate.Target),
		"rate":       rate.Rate.String(),
		"superseded": fmt.Sprintf("%d", superseded),
	}))
	if err != nil {
		return nil, upstreamErr(op, err)
	}

	s.resolver.Invalidate(rate.Base, rate.Target)

	s.log.Info("курс установлен",
		slog.String("op", op),
		slog.String("base", string(rate.Base)),
		slog.String("target", string(rate.Target)),
		slog.String("rate", rate.Rate.String()),
		slog.Int64("superseded", superseded))

	return rate, nil
}

func (s *RateService) buildRate(actor models.Operator, req models.SetRateRequest) (*models.ExchangeRate, error) {
	if !req.Base.IsValid() {
		return nil, custom_err.NewValidationErrorKind("base", fmt.Sprintf("unsupported currency code %q", req.Base), custom_err.ErrInvalidCurrency)
	}
	if !req.Target.IsValid() {
		return nil, custom_err.NewValidationErrorKind("target", fmt.Sprintf("unsupported currency code %q", req.Target), custom_err.ErrInvalidCurrency)
	}
	if req.Base == req.Target {
		return nil, custom_err.NewValidationError("target", "must differ from base")
	}

	rate, err := parsePositiveRate("rate", req.Rate)
	if err != nil {
		return nil, err
	}
	buy, sell := rate, rate
	if req.BuyRate != "" {
		if buy, err = parsePositiveRate("buy_rate", req.BuyRate); err != nil {
			return nil, err
		}
	}
	if req.SellRate != "" {
		if sell, err = parsePositiveRate("sell_rate", req.SellRate); err != nil {
			return nil, err
		}
	}

	now := s.now()
	effective := now
	if req.EffectiveAt != nil {
		effective = req.EffectiveAt.UTC()
	}
	var expires *time.Time
	if req.ExpiresAt != nil {
		e := req.ExpiresAt.UTC()
		if !e.After(effective) {
			return nil, custom_err.NewValidationError("expires_at", "must be after effective_at")
		}
		expires = &e
	}

	return &models.ExchangeRate{
		ID:          uuid.New(),
		Base:        req.Base,
		Target:      req.Target,
		Rate:        rate,
		BuyRate:     buy,
		SellRate:    sell,
		EffectiveAt: effective,
		ExpiresAt:   expires,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
	}, nil
}

func parsePositiveRate(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, custom_err.NewValidationError(field, fmt.Sprintf("not a decimal: %q", raw))
	}
	if !d.IsPositive() {
		return decimal.Zero, custom_err.NewValidationError(field, "must be greater than zero")
	}
	return d, nil
}

func (s *RateService) ListCurrent(ctx context.Context) ([]*models.ExchangeRate, error) {
	const op = "service.RateService.ListCurrent"

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rates, err := s.repo.ListCurrentRates(ctx, s.now())
	if err != nil {
		return nil, upstreamErr(op, err)
	}
	return rates, nil
}

func (s *RateService) Resolve(ctx context.Context, base, target models.Currency) (decimal.Decimal, error) {
	return s.resolver.Resolve(ctx, base, target)
}
