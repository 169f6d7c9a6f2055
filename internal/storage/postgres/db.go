package postgres

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB общий интерфейс для pgxpool.Pool, pgx.Tx и pgxmock
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Интерфейс для query executor
type pgxQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	openSessionIndex = "uq_cash_register_sessions_open_operator"
	referenceIndex   = "uq_transactions_reference"
)

// mapError переводит ошибки pgx в ошибки предметной области
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return custom_err.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %v", op, custom_err.ErrUpstreamTimeout, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch {
			case strings.Contains(pgErr.ConstraintName, openSessionIndex):
				return custom_err.ErrAlreadyOpen
			case strings.Contains(pgErr.ConstraintName, referenceIndex):
				return custom_err.ErrDuplicateReference
			}
		case pgCheckViolation:
			return custom_err.ErrInsufficientFunds
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
