package postgres

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/storage"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type RateRepository interface {
	GetCurrentRate(ctx context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error)
	ListCurrentRates(ctx context.Context, at time.Time) ([]*models.ExchangeRate, error)

	SupersedeRatesTx(ctx context.Context, tx pgx.Tx, base, target models.Currency, at time.Time) (int64, error)
	CreateRateTx(ctx context.Context, tx pgx.Tx, rate *models.ExchangeRate) error
}

type PgRateRepository struct {
	db DB
}

func NewRateRepository(db DB) *PgRateRepository {
	return &PgRateRepository{db: db}
}

func (r *PgRateRepository) GetCurrentRate(ctx context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error) {
	const op = "storage.GetCurrentRate"

	rate, err := scanRate(r.db.QueryRow(ctx, storage.GetCurrentRateQuery, string(base), string(target), at))
	if err != nil {
		return nil, mapError(op, err)
	}
	return rate, nil
}

func (r *PgRateRepository) ListCurrentRates(ctx context.Context, at time.Time) ([]*models.ExchangeRate, error) {
	const op = "storage.ListCurrentRates"

	rows, err := r.db.Query(ctx, storage.ListCurrentRatesQuery, at)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	rates := make([]*models.ExchangeRate, 0)
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return rates, nil
}

func (r *PgRateRepository) SupersedeRatesTx(ctx context.Context, tx pgx.Tx, base, target models.Currency, at time.Time) (int64, error) {
	const op = "storage.SupersedeRatesTx"

	res, err := tx.Exec(ctx, storage.SupersedeRatesQuery, string(base), string(target), at)
	if err != nil {
		return 0, mapError(op, err)
	}
	return res.RowsAffected(), nil
}

func (r *PgRateRepository) CreateRateTx(ctx context.Context, tx pgx.Tx, rate *models.ExchangeRate) error {
	const op = "storage.CreateRateTx"

	_, err := tx.Exec(ctx, storage.CreateRateQuery,
		rate.ID, string(rate.Base), string(rate.Target),
		rate.Rate.String(), rate.BuyRate.String(), rate.SellRate.String(),
		rate.EffectiveAt, rate.ExpiresAt, rate.CreatedBy, rate.CreatedAt,
	)
	return mapError(op, err)
}

// scanRate numeric колонки читаются как text, чтобы не терять точность
func scanRate(row pgx.Row) (*models.ExchangeRate, error) {
	var (
		rate                models.ExchangeRate
		value, buy, sell    string
		base, target        string
		expires, superseded *time.Time
	)
	err := row.Scan(
		&rate.ID,
		&base,
		&target,
		&value,
		&buy,
		&sell,
		&rate.EffectiveAt,
		&expires,
		&superseded,
		&rate.CreatedBy,
		&rate.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rate.Base = models.Currency(base)
	rate.Target = models.Currency(target)
	rate.ExpiresAt = expires
	rate.SupersededAt = superseded

	if rate.Rate, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("rate %q: %w", value, err)
	}
	if rate.BuyRate, err = decimal.NewFromString(buy); err != nil {
		return nil, fmt.Errorf("buy_rate %q: %w", buy, err)
	}
	if rate.SellRate, err = decimal.NewFromString(sell); err != nil {
		return nil, fmt.Errorf("sell_rate %q: %w", sell, err)
	}
	return &rate, nil
}
