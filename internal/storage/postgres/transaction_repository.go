package postgres

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByOperator(ctx context.Context, operatorID string, limit, offset int) ([]*models.Transaction, error)

	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Transaction, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
}

type PgTransactionRepository struct {
	db DB
}

func NewTransactionRepository(db DB) *PgTransactionRepository {
	return &PgTransactionRepository{db: db}
}

// Create сохраняет транзакцию; повтор референса возвращает ErrDuplicateReference
func (r *PgTransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	const op = "storage.CreateTransaction"

	var rate *string
	if t.ExchangeRate != nil {
		s := t.ExchangeRate.String()
		rate = &s
	}

	_, err := r.db.Exec(ctx, storage.CreateTransactionQuery,
		t.ID,
		t.Reference,
		string(t.Type),
		string(t.Status),
		t.SendAmount.MinorUnits(),
		string(t.SendAmount.Currency),
		t.ReceiveAmount.MinorUnits(),
		string(t.ReceiveAmount.Currency),
		t.Fee.MinorUnits(),
		string(t.Fee.Currency),
		rate,
		string(t.PayoutMethod),
		t.SenderID,
		t.ReceiverID,
		t.OperatorID,
		t.BranchID,
		t.Notes,
		t.CreatedAt,
	)
	return mapError(op, err)
}

func (r *PgTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	const op = "storage.GetTransactionByID"

	t, err := scanTransaction(r.db.QueryRow(ctx, storage.GetTransactionByIDQuery, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return t, nil
}

func (r *PgTransactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	const op = "storage.GetTransactionByReference"

	t, err := scanTransaction(r.db.QueryRow(ctx, storage.GetTransactionByReferenceQuery, reference))
	if err != nil {
		return nil, mapError(op, err)
	}
	return t, nil
}

func (r *PgTransactionRepository) ListByOperator(ctx context.Context, operatorID string, limit, offset int) ([]*models.Transaction, error) {
	const op = "storage.ListTransactionsByOperator"

	rows, err := r.db.Query(ctx, storage.ListTransactionsByOperatorQuery, operatorID, limit, offset)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	list := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return list, nil
}

func (r *PgTransactionRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Transaction, error) {
	const op = "storage.GetTransactionForUpdateTx"

	t, err := scanTransaction(tx.QueryRow(ctx, storage.GetTransactionForUpdateQuery, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return t, nil
}

func (r *PgTransactionRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	const op = "storage.UpdateTransactionStatusTx"

	res, err := tx.Exec(ctx, storage.UpdateTransactionStatusQuery,
		t.ID, string(t.Status), t.Notes, t.CompletedAt, t.SettlementSessionID)
	if err != nil {
		return mapError(op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrInvalidStateTransition
	}
	return nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		t                                      models.Transaction
		txType, status, payout                 string
		sendMinor, receiveMinor, feeMinor      int64
		sendCurrency, receiveCurrency, feeCurr string
		rate                                   *string
	)
	err := row.Scan(
		&t.ID,
		&t.Reference,
		&txType,
		&status,
		&sendMinor,
		&sendCurrency,
		&receiveMinor,
		&receiveCurrency,
		&feeMinor,
		&feeCurr,
		&rate,
		&payout,
		&t.SenderID,
		&t.ReceiverID,
		&t.OperatorID,
		&t.BranchID,
		&t.SettlementSessionID,
		&t.Notes,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = models.TransactionType(txType)
	t.Status = models.TransactionStatus(status)
	t.PayoutMethod = models.PayoutMethod(payout)
	t.SendAmount = models.MoneyFromMinorUnits(sendMinor, models.Currency(sendCurrency))
	t.ReceiveAmount = models.MoneyFromMinorUnits(receiveMinor, models.Currency(receiveCurrency))
	t.Fee = models.MoneyFromMinorUnits(feeMinor, models.Currency(feeCurr))

	if rate != nil {
		d, err := decimal.NewFromString(*rate)
		if err != nil {
			return nil, fmt.Errorf("exchange_rate %q: %w", *rate, err)
		}
		t.ExchangeRate = &d
	}
	return &t, nil
}
