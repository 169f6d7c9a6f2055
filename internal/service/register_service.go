package service

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/storage/postgres"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Register interface {
	Open(ctx context.Context, operator models.Operator, req models.OpenRegisterRequest) (*models.CashRegisterSession, error)
	Deposit(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error)
	Withdraw(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error)
	Reconcile(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.ReconcileRequest) (*models.RegisterOperationResponse, error)
	Close(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CloseRegisterRequest) (*models.CashRegisterSession, error)

	Get(ctx context.Context, operator models.Operator, sessionID uuid.UUID) (*models.CashRegisterSession, error)
	GetCurrent(ctx context.Context, operator models.Operator) (*models.CashRegisterSession, error)
	ListOperations(ctx context.Context, operator models.Operator, sessionID uuid.UUID) ([]*models.CashOperation, error)
}

// SettlementLeg движение наличных при проведении транзакции.
// Amount is positive; Type is CashOpDeposit (cash in) or CashOpWithdrawal (cash out).
type SettlementLeg struct {
	Type   models.CashOperationType
	Amount models.Money
}

func (l SettlementLeg) signed() models.Money {
	if l.Type == models.CashOpWithdrawal {
		return models.Money{Amount: l.Amount.Amount.Neg(), Currency: l.Amount.Currency}
	}
	return l.Amount
}

type RegisterService struct {
	repo      postgres.RegisterRepository
	txManager TxManager
	audit     AuditSink
	timeout   time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewRegisterService(repo postgres.RegisterRepository, txManager TxManager, audit AuditSink, timeout time.Duration, log *slog.Logger) *RegisterService {
	return &RegisterService{
		repo:      repo,
		txManager: txManager,
		audit:     audit,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *RegisterService) Open(ctx context.Context, operator models.Operator, req models.OpenRegisterRequest) (*models.CashRegisterSession, error) {
	const op = "service.RegisterService.Open"

	initial, err := parseBalances("initial_balances", req.InitialBalances, custom_err.ErrInvalidAmount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.CashRegisterSession{
		ID:         uuid.New(),
		OperatorID: operator.ID,
		BranchID:   operator.BranchID,
		Status:     models.SessionOpen,
		Balances:   make(map[models.Currency]models.Money, len(initial)),
		OpenedAt:   now,
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := s.repo.GetOpenSessionForUpdateTx(ctx, tx, operator.ID)
		switch {
		case err == nil:
			return custom_err.ErrAlreadyOpen
		case !errors.Is(err, custom_err.ErrNotFound):
			return fmt.Errorf("failed to check open session: %w", err)
		}

		if err := s.repo.CreateSessionTx(ctx, tx, session); err != nil {
			return err
		}

		for _, currency := range sortedCurrencies(initial) {
			amount := initial[currency]
			if err := s.repo.SetBalanceTx(ctx, tx, session.ID, amount); err != nil {
				return fmt.Errorf("failed to seed balance: %w", err)
			}
			if err := s.repo.CreateOperationTx(ctx, tx, &models.CashOperation{
				ID:           uuid.New(),
				SessionID:    session.ID,
				Type:         models.CashOpOpen,
				Amount:       amount,
				BalanceAfter: amount,
				Notes:        req.Notes,
				CreatedAt:    now,
			}); err != nil {
				return fmt.Errorf("failed to record open operation: %w", err)
			}
			session.Balances[currency] = amount
		}
		return nil
	})

	s.record(ctx, "REGISTER_OPENED", operator, err, "cash register opened", map[string]string{
		"session_id": session.ID.String(),
		"branch_id":  operator.BranchID,
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Info("касса открыта",
		slog.String("op", op),
		slog.String("session_id", session.ID.String()),
		slog.String("operator_id", operator.ID))

	return session, nil
}

func (s *RegisterService) Deposit(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error) {
	const op = "service.RegisterService.Deposit"
	return s.move(ctx, op, "CASH_DEPOSITED", models.CashOpDeposit, operator, sessionID, req)
}

func (s *RegisterService) Withdraw(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error) {
	const op = "service.RegisterService.Withdraw"
	return s.move(ctx, op, "CASH_WITHDRAWN", models.CashOpWithdrawal, operator, sessionID, req)
}

func (s *RegisterService) move(
	ctx context.Context,
	op, action string,
	opType models.CashOperationType,
	operator models.Operator,
	sessionID uuid.UUID,
	req models.CashMovementRequest,
) (*models.RegisterOperationResponse, error) {
	amount, err := models.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, custom_err.NewValidationErrorKind("amount", "must be greater than zero", custom_err.ErrInvalidAmount)
	}

	leg := SettlementLeg{Type: opType, Amount: amount}
	resp, err := s.mutate(ctx, operator, sessionID, func(ctx context.Context, tx pgx.Tx, session *models.CashRegisterSession) (*models.CashOperation, error) {
		return s.applyTx(ctx, tx, session, opType, leg.signed(), req.Reference, req.Notes)
	})

	s.record(ctx, action, operator, err, fmt.Sprintf("%s %s", opType, amount), map[string]string{
		"session_id": sessionID.String(),
		"currency":   string(amount.Currency),
		"amount":     amount.StringFixed(),
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return resp, nil
}

// Reconcile перезаписывает остаток пересчитанной суммой, разница пишется как ADJUSTMENT
func (s *RegisterService) Reconcile(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.ReconcileRequest) (*models.RegisterOperationResponse, error) {
	const op = "service.RegisterService.Reconcile"

	counted, err := models.ParseMoney(req.CountedAmount, req.Currency)
	if err != nil {
		return nil, err
	}
	if counted.IsNegative() {
		return nil, custom_err.NewValidationErrorKind("counted_amount", "must not be negative", custom_err.ErrInsufficientFunds)
	}

	var delta models.Money
	resp, err := s.mutate(ctx, operator, sessionID, func(ctx context.Context, tx pgx.Tx, session *models.CashRegisterSession) (*models.CashOperation, error) {
		d, err := counted.Subtract(session.Balance(counted.Currency))
		if err != nil {
			return nil, err
		}
		delta = d
		return s.applyTx(ctx, tx, session, models.CashOpAdjustment, delta, "", req.Notes)
	})

	s.record(ctx, "REGISTER_RECONCILED", operator, err, "cash counted", map[string]string{
		"session_id": sessionID.String(),
		"currency":   string(counted.Currency),
		"counted":    counted.StringFixed(),
		"delta":      delta.Amount.String(),
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return resp, nil
}

// Close сверяет остатки со всеми переданными суммами и закрывает смену одной транзакцией
func (s *RegisterService) Close(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CloseRegisterRequest) (*models.CashRegisterSession, error) {
	const op = "service.RegisterService.Close"

	final, err := parseBalances("final_balances", req.FinalBalances, custom_err.ErrInsufficientFunds)
	if err != nil {
		return nil, err
	}

	closedAt := s.now()
	deltas := make(map[string]string)

	resp, err := s.mutate(ctx, operator, sessionID, func(ctx context.Context, tx pgx.Tx, session *models.CashRegisterSession) (*models.CashOperation, error) {
		for _, currency := range sortedCurrencies(final) {
			delta, err := final[currency].Subtract(session.Balance(currency))
			if err != nil {
				return nil, err
			}
			if delta.IsZero() {
				continue
			}
			if _, err := s.applyTx(ctx, tx, session, models.CashOpAdjustment, delta, "", req.Notes); err != nil {
				return nil, err
			}
			deltas["delta_"+string(currency)] = delta.Amount.String()
		}

		for _, currency := range sortedCurrencies(session.Balances) {
			balance := session.Balances[currency]
			if err := s.repo.CreateOperationTx(ctx, tx, &models.CashOperation{
				ID:           uuid.New(),
				SessionID:    session.ID,
				Type:         models.CashOpClose,
				Amount:       balance,
				BalanceAfter: balance,
				Notes:        req.Notes,
				CreatedAt:    closedAt,
			}); err != nil {
				return nil, fmt.Errorf("failed to record close operation: %w", err)
			}
		}

		if err := s.repo.CloseSessionTx(ctx, tx, session.ID, closedAt, req.Notes); err != nil {
			return nil, err
		}
		session.Status = models.SessionClosed
		session.ClosedAt = &closedAt
		session.CloseNotes = req.Notes
		return nil, nil
	})

	deltas["session_id"] = sessionID.String()
	s.record(ctx, "REGISTER_CLOSED", operator, err, "cash register closed", deltas)
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Info("касса закрыта",
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("operator_id", operator.ID))

	return resp.Session, nil
}

func (s *RegisterService) Get(ctx context.Context, operator models.Operator, sessionID uuid.UUID) (*models.CashRegisterSession, error) {
	const op = "service.RegisterService.Get"

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !canView(operator, session) {
		return nil, custom_err.ErrSessionOwnership
	}
	return session, nil
}

func (s *RegisterService) GetCurrent(ctx context.Context, operator models.Operator) (*models.CashRegisterSession, error) {
	const op = "service.RegisterService.GetCurrent"

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.repo.GetOpenSessionByOperator(ctx, operator.ID)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, custom_err.ErrNoOpenSession
		}
		return nil, s.fail(op, err)
	}
	return session, nil
}

func (s *RegisterService) ListOperations(ctx context.Context, operator models.Operator, sessionID uuid.UUID) ([]*models.CashOperation, error) {
	const op = "service.RegisterService.ListOperations"

	if _, err := s.Get(ctx, operator, sessionID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ops, err := s.repo.ListOperations(ctx, sessionID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return ops, nil
}

// ApplySettlementTx проводит движения наличных по открытой кассе оператора внутри чужой транзакции.
// Legs are netted per currency before the balance check, then recorded one operation per leg.
func (s *RegisterService) ApplySettlementTx(ctx context.Context, tx pgx.Tx, operator models.Operator, legs []SettlementLeg, reference string) (*models.CashRegisterSession, error) {
	session, err := s.repo.GetOpenSessionForUpdateTx(ctx, tx, operator.ID)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, custom_err.ErrNoOpenSession
		}
		return nil, err
	}

	net := make(map[models.Currency]models.Money)
	for _, leg := range legs {
		current, ok := net[leg.Amount.Currency]
		if !ok {
			current = session.Balance(leg.Amount.Currency)
		}
		next, err := current.Add(leg.signed())
		if err != nil {
			return nil, err
		}
		net[leg.Amount.Currency] = next
	}
	for currency, balance := range net {
		if balance.IsNegative() {
			return nil, fmt.Errorf("%w: %s balance %s", custom_err.ErrInsufficientFunds, currency, session.Balance(currency).StringFixed())
		}
	}

	ordered := slices.Clone(legs)
	slices.SortStableFunc(ordered, func(a, b SettlementLeg) int {
		return legOrder(a) - legOrder(b)
	})

	for _, leg := range ordered {
		if _, err := s.applyTx(ctx, tx, session, leg.Type, leg.signed(), reference, ""); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// cash in раньше cash out, чтобы промежуточный остаток не уходил в минус
func legOrder(l SettlementLeg) int {
	if l.Type == models.CashOpWithdrawal {
		return 1
	}
	return 0
}

// mutate блокирует строку сессии, проверяет владельца и статус и выполняет fn в одной транзакции.
// fn получает ctx с таймаутом хранилища.
func (s *RegisterService) mutate(
	ctx context.Context,
	operator models.Operator,
	sessionID uuid.UUID,
	fn func(ctx context.Context, tx pgx.Tx, session *models.CashRegisterSession) (*models.CashOperation, error),
) (*models.RegisterOperationResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	resp := &models.RegisterOperationResponse{}
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		session, err := s.repo.GetSessionForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.OperatorID != operator.ID {
			return custom_err.ErrSessionOwnership
		}
		if !session.IsOpen() {
			return custom_err.ErrSessionClosed
		}

		operation, err := fn(ctx, tx, session)
		if err != nil {
			return err
		}
		resp.Session = session
		resp.Operation = operation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// applyTx меняет остаток на delta и пишет операцию в журнал
func (s *RegisterService) applyTx(
	ctx context.Context,
	tx pgx.Tx,
	session *models.CashRegisterSession,
	opType models.CashOperationType,
	delta models.Money,
	reference, notes string,
) (*models.CashOperation, error) {
	current := session.Balance(delta.Currency)
	next, err := current.Add(delta)
	if err != nil {
		return nil, err
	}
	if next.IsNegative() {
		return nil, fmt.Errorf("%w: %s balance %s, requested %s",
			custom_err.ErrInsufficientFunds, delta.Currency, current.StringFixed(), delta.Amount.Abs().String())
	}
	if !next.FitsMinorUnits() {
		return nil, custom_err.NewValidationErrorKind("amount",
			fmt.Sprintf("%s balance would exceed the storable range", delta.Currency), custom_err.ErrInvalidAmount)
	}

	if err := s.repo.SetBalanceTx(ctx, tx, session.ID, next); err != nil {
		return nil, err
	}

	operation := &models.CashOperation{
		ID:           uuid.New(),
		SessionID:    session.ID,
		Type:         opType,
		Amount:       delta,
		BalanceAfter: next,
		Reference:    reference,
		Notes:        notes,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateOperationTx(ctx, tx, operation); err != nil {
		return nil, err
	}

	session.Balances[delta.Currency] = next
	return operation, nil
}

func (s *RegisterService) record(ctx context.Context, action string, operator models.Operator, err error, details string, metadata map[string]string) {
	status := models.AuditSuccess
	if err != nil {
		status = models.AuditFailure
		details = err.Error()
	}
	s.audit.Record(ctx, newAuditEvent(action, auditModuleRegisters, details, status, operator.ID, metadata))
}

func (s *RegisterService) fail(op string, err error) error {
	err = upstreamErr(op, err)
	s.log.Debug("операция с кассой отклонена", slog.String("op", op), slog.String("error", err.Error()))
	return err
}

func canView(operator models.Operator, session *models.CashRegisterSession) bool {
	if session.OperatorID == operator.ID {
		return true
	}
	if operator.HasRole(models.RoleAdmin) {
		return true
	}
	return operator.HasRole(models.RoleSupervisor) && operator.BranchID == session.BranchID
}

// parseBalances negativeKind - ошибка для отрицательной суммы
func parseBalances(field string, raw map[models.Currency]string, negativeKind error) (map[models.Currency]models.Money, error) {
	parsed := make(map[models.Currency]models.Money, len(raw))
	for currency, amount := range raw {
		m, err := models.ParseMoney(amount, currency)
		if err != nil {
			return nil, err
		}
		if m.IsNegative() {
			return nil, custom_err.NewValidationErrorKind(fmt.Sprintf("%s.%s", field, currency), "must not be negative", negativeKind)
		}
		parsed[currency] = m
	}
	return parsed, nil
}

func sortedCurrencies[V any](m map[models.Currency]V) []models.Currency {
	keys := make([]models.Currency, 0, len(m))
	for c := range m {
		keys = append(keys, c)
	}
	slices.Sort(keys)
	return keys
}
