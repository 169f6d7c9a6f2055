package postgres

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/storage"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RegisterRepository interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.CashRegisterSession, error)
	GetOpenSessionByOperator(ctx context.Context, operatorID string) (*models.CashRegisterSession, error)
	ListOperations(ctx context.Context, sessionID uuid.UUID) ([]*models.CashOperation, error)

	CreateSessionTx(ctx context.Context, tx pgx.Tx, session *models.CashRegisterSession) error
	GetSessionForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.CashRegisterSession, error)
	GetOpenSessionForUpdateTx(ctx context.Context, tx pgx.Tx, operatorID string) (*models.CashRegisterSession, error)
	SetBalanceTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, balance models.Money) error
	CreateOperationTx(ctx context.Context, tx pgx.Tx, op *models.CashOperation) error
	CloseSessionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, closedAt time.Time, notes string) error
}

type PgRegisterRepository struct {
	db DB
}

func NewRegisterRepository(db DB) *PgRegisterRepository {
	return &PgRegisterRepository{db: db}
}

func (r *PgRegisterRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.CashRegisterSession, error) {
	const op = "storage.GetSession"
	return r.loadSession(ctx, op, r.db, storage.GetSessionQuery, id)
}

func (r *PgRegisterRepository) GetOpenSessionByOperator(ctx context.Context, operatorID string) (*models.CashRegisterSession, error) {
	const op = "storage.GetOpenSessionByOperator"
	return r.loadSession(ctx, op, r.db, storage.GetOpenSessionByOperatorQuery, operatorID)
}

func (r *PgRegisterRepository) ListOperations(ctx context.Context, sessionID uuid.UUID) ([]*models.CashOperation, error) {
	const op = "storage.ListOperations"

	rows, err := r.db.Query(ctx, storage.ListCashOperationsQuery, sessionID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	ops := make([]*models.CashOperation, 0)
	for rows.Next() {
		var (
			operation     models.CashOperation
			opType        string
			currency      string
			amount, after int64
		)
		err := rows.Scan(
			&operation.ID,
			&operation.SessionID,
			&opType,
			&currency,
			&amount,
			&after,
			&operation.Reference,
			&operation.Notes,
			&operation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		operation.Type = models.CashOperationType(opType)
		operation.Amount = models.MoneyFromMinorUnits(amount, models.Currency(currency))
		operation.BalanceAfter = models.MoneyFromMinorUnits(after, models.Currency(currency))
		ops = append(ops, &operation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return ops, nil
}

// loadSession читает строку сессии и её остатки через один и тот же executor,
// чтобы внутри транзакции остатки читались под той же блокировкой
func (r *PgRegisterRepository) loadSession(ctx context.Context, op string, q DB, query string, arg interface{}) (*models.CashRegisterSession, error) {
	session, err := scanSession(ctx, q, query, arg)
	if err != nil {
		return nil, mapError(op, err)
	}

	rows, err := q.Query(ctx, storage.GetSessionBalancesQuery, session.ID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			currency string
			minor    int64
		)
		if err := rows.Scan(&currency, &minor); err != nil {
			return nil, fmt.Errorf("%s: scan balance: %w", op, err)
		}
		c := models.Currency(currency)
		session.Balances[c] = models.MoneyFromMinorUnits(minor, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return session, nil
}

func scanSession(ctx context.Context, q pgxQueryer, query string, arg interface{}) (*models.CashRegisterSession, error) {
	var (
		session models.CashRegisterSession
		status  string
	)
	err := q.QueryRow(ctx, query, arg).Scan(
		&session.ID,
		&session.OperatorID,
		&session.BranchID,
		&status,
		&session.OpenedAt,
		&session.ClosedAt,
		&session.CloseNotes,
	)
	if err != nil {
		return nil, err
	}
	session.Status = models.SessionStatus(status)
	session.Balances = make(map[models.Currency]models.Money)
	return &session, nil
}

func (r *PgRegisterRepository) CreateSessionTx(ctx context.Context, tx pgx.Tx, session *models.CashRegisterSession) error {
	const op = "storage.CreateSessionTx"

	_, err := tx.Exec(ctx, storage.CreateSessionQuery,
		session.ID, session.OperatorID, session.BranchID, string(session.Status), session.OpenedAt)
	return mapError(op, err)
}

func (r *PgRegisterRepository) GetSessionForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.CashRegisterSession, error) {
	const op = "storage.GetSessionForUpdateTx"
	return r.loadSession(ctx, op, tx, storage.GetSessionForUpdateQuery, id)
}

func (r *PgRegisterRepository) GetOpenSessionForUpdateTx(ctx context.Context, tx pgx.Tx, operatorID string) (*models.CashRegisterSession, error) {
	const op = "storage.GetOpenSessionForUpdateTx"
	return r.loadSession(ctx, op, tx, storage.GetOpenSessionByOperatorForUpdateQuery, operatorID)
}

func (r *PgRegisterRepository) SetBalanceTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, balance models.Money) error {
	const op = "storage.SetBalanceTx"

	_, err := tx.Exec(ctx, storage.UpsertBalanceQuery, sessionID, string(balance.Currency), balance.MinorUnits())
	return mapError(op, err)
}

func (r *PgRegisterRepository) CreateOperationTx(ctx context.Context, tx pgx.Tx, operation *models.CashOperation) error {
	const op = "storage.CreateOperationTx"

	_, err := tx.Exec(ctx, storage.CreateCashOperationQuery,
		operation.ID,
		operation.SessionID,
		string(operation.Type),
		string(operation.Amount.Currency),
		operation.Amount.MinorUnits(),
		operation.BalanceAfter.MinorUnits(),
		operation.Reference,
		operation.Notes,
		operation.CreatedAt,
	)
	return mapError(op, err)
}

func (r *PgRegisterRepository) CloseSessionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, closedAt time.Time, notes string) error {
	const op = "storage.CloseSessionTx"

	res, err := tx.Exec(ctx, storage.CloseSessionQuery, id, closedAt, notes)
	if err != nil {
		return mapError(op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrSessionClosed
	}
	return nil
}
