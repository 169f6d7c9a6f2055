package service

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/storage/postgres"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	DefaultReferenceAttempts = 5
	defaultListLimit         = 50
	maxListLimit             = 500
)

type Transactions interface {
	CreateTransaction(ctx context.Context, operator models.Operator, req models.TransactionRequest) (*models.Transaction, error)
	Advance(ctx context.Context, operator models.Operator, id uuid.UUID, req models.AdvanceRequest) (*models.Transaction, error)
	Cancel(ctx context.Context, operator models.Operator, id uuid.UUID, reason string) (*models.Transaction, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	List(ctx context.Context, operator models.Operator, limit, offset int) ([]*models.Transaction, error)
}

// Resolver находит курс пары
type Resolver interface {
	Resolve(ctx context.Context, base, target models.Currency) (decimal.Decimal, error)
}

// Settlement проводит движения наличных по кассе в рамках транзакции БД
type Settlement interface {
	ApplySettlementTx(ctx context.Context, tx pgx.Tx, operator models.Operator, legs []SettlementLeg, reference string) (*models.CashRegisterSession, error)
}

type TransactionService struct {
	repo       postgres.TransactionRepository
	txManager  TxManager
	resolver   Resolver
	fees       *FeeCalculator
	references *ReferenceGenerator
	settlement Settlement
	audit      AuditSink

	attempts int
	timeout  time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewTransactionService(
	repo postgres.TransactionRepository,
	txManager TxManager,
	resolver Resolver,
	fees *FeeCalculator,
	references *ReferenceGenerator,
	settlement Settlement,
	audit AuditSink,
	attempts int,
	timeout time.Duration,
	log *slog.Logger,
) *TransactionService {
	if attempts <= 0 {
		attempts = DefaultReferenceAttempts
	}
	return &TransactionService{
		repo:       repo,
		txManager:  txManager,
		resolver:   resolver,
		fees:       fees,
		references: references,
		settlement: settlement,
		audit:      audit,
		attempts:   attempts,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// CreateTransaction проверяет запрос, считает комиссию и сумму к выдаче и сохраняет транзакцию в статусе PENDING
func (s *TransactionService) CreateTransaction(ctx context.Context, operator models.Operator, req models.TransactionRequest) (*models.Transaction, error) {
	const op = "service.TransactionService.CreateTransaction"

	t, err := s.build(ctx, operator, req)
	if err != nil {
		s.log.Debug("транзакция отклонена", slog.String("op", op), slog.String("error", err.Error()))
		return nil, upstreamErr(op, err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		t.Reference = s.references.Generate(t.Type)

		err = s.repo.Create(ctx, t)
		if err == nil {
			break
		}
		if !errors.Is(err, custom_err.ErrDuplicateReference) {
			return nil, upstreamErr(op, err)
		}
		s.log.Warn("коллизия референса, генерируем заново",
			slog.String("op", op),
			slog.String("reference", t.Reference),
			slog.Int("attempt", attempt))
	}
	if err != nil {
		s.record(ctx, "TRANSACTION_CREATED", operator, custom_err.ErrReferenceGenerationFailed, t)
		return nil, fmt.Errorf("%s: %w after %d attempts", op, custom_err.ErrReferenceGenerationFailed, s.attempts)
	}

	s.record(ctx, "TRANSACTION_CREATED", operator, nil, t)
	s.log.Info("транзакция создана",
		slog.String("op", op),
		slog.String("reference", t.Reference),
		slog.String("type", string(t.Type)),
		slog.String("send", t.SendAmount.String()),
		slog.String("receive", t.ReceiveAmount.String()),
		slog.String("fee", t.Fee.String()))

	return t, nil
}

func (s *TransactionService) build(ctx context.Context, operator models.Operator, req models.TransactionRequest) (*models.Transaction, error) {
	if !req.Type.IsValid() {
		return nil, custom_err.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if strings.TrimSpace(req.SenderID) == "" {
		return nil, custom_err.NewValidationError("sender_id", "is required")
	}

	send, err := models.ParseMoney(req.SendAmount, req.SendCurrency)
	if err != nil {
		return nil, err
	}
	if !send.IsPositive() {
		return nil, custom_err.NewValidationErrorKind("send_amount", "must be greater than zero", custom_err.ErrInvalidAmount)
	}

	receiveCurrency := req.ReceiveCurrency
	if receiveCurrency == "" {
		receiveCurrency = send.Currency
	}
	if !receiveCurrency.IsValid() {
		return nil, custom_err.NewValidationErrorKind("receive_currency", fmt.Sprintf("unsupported currency code %q", receiveCurrency), custom_err.ErrInvalidCurrency)
	}
	if !req.Type.RequiresRate() && receiveCurrency != send.Currency {
		return nil, custom_err.NewValidationErrorKind("receive_currency",
			fmt.Sprintf("%s must be in a single currency", req.Type), custom_err.ErrCurrencyMismatch)
	}

	payout := req.PayoutMethod
	if payout == "" {
		payout = models.PayoutCash
	}
	if !payout.IsValid() {
		return nil, custom_err.NewValidationError("payout_method", fmt.Sprintf("unknown payout method %q", payout))
	}

	t := &models.Transaction{
		ID:           uuid.New(),
		Type:         req.Type,
		Status:       models.StatusPending,
		SendAmount:   send,
		Fee:          models.ZeroMoney(send.Currency),
		PayoutMethod: payout,
		SenderID:     req.SenderID,
		ReceiverID:   req.ReceiverID,
		OperatorID:   operator.ID,
		BranchID:     operator.BranchID,
		Notes:        req.Notes,
		CreatedAt:    s.now(),
	}

	if !req.Type.RequiresRate() {
		t.ReceiveAmount = send
		return t, nil
	}

	rate, err := s.resolver.Resolve(ctx, send.Currency, receiveCurrency)
	if err != nil {
		return nil, err
	}

	fee, err := s.fees.Calculate(send, send.Currency, receiveCurrency, nil)
	if err != nil {
		return nil, err
	}

	net, err := send.Subtract(fee)
	if err != nil {
		return nil, err
	}

	t.Fee = fee
	t.ExchangeRate = &rate
	t.ReceiveAmount = net.Convert(rate, receiveCurrency)
	if !t.ReceiveAmount.FitsMinorUnits() {
		return nil, custom_err.NewValidationErrorKind("send_amount",
			fmt.Sprintf("converted amount exceeds the storable range for %s", receiveCurrency), custom_err.ErrInvalidAmount)
	}
	return t, nil
}

// Advance переводит транзакцию из PENDING. COMPLETED проводит расчёт по кассе оператора
// в той же транзакции БД; при ошибке расчёта статус остаётся PENDING.
func (s *TransactionService) Advance(ctx context.Context, operator models.Operator, id uuid.UUID, req models.AdvanceRequest) (*models.Transaction, error) {
	const op = "service.TransactionService.Advance"

	switch req.Status {
	case models.StatusCancelled:
		return s.Cancel(ctx, operator, id, req.Reason)
	case models.StatusCompleted, models.StatusFailed:
	case models.StatusPending:
		return nil, fmt.Errorf("%s: %w: cannot move back to %s", op, custom_err.ErrInvalidStateTransition, req.Status)
	default:
		return nil, custom_err.NewValidationError("status", fmt.Sprintf("unknown status %q", req.Status))
	}

	t, err := s.transition(ctx, id, req.Status, func(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
		now := s.now()
		if req.Status == models.StatusFailed {
			t.Notes = appendNote(t.Notes, now, "failed", req.Reason)
			return nil
		}

		session, err := s.settlement.ApplySettlementTx(ctx, tx, operator, settlementLegs(t), t.Reference)
		if err != nil {
			return err
		}
		t.SettlementSessionID = &session.ID
		t.CompletedAt = &now
		return nil
	})

	action := "TRANSACTION_COMPLETED"
	if req.Status == models.StatusFailed {
		action = "TRANSACTION_FAILED"
	}
	s.record(ctx, action, operator, err, t)
	if err != nil {
		return nil, upstreamErr(op, err)
	}

	s.log.Info("статус транзакции изменён",
		slog.String("op", op),
		slog.String("reference", t.Reference),
		slog.String("status", string(t.Status)))

	return t, nil
}

// Cancel только из PENDING, причина дописывается в notes с отметкой времени
func (s *TransactionService) Cancel(ctx context.Context, operator models.Operator, id uuid.UUID, reason string) (*models.Transaction, error) {
	const op = "service.TransactionService.Cancel"

	t, err := s.transition(ctx, id, models.StatusCancelled, func(_ context.Context, _ pgx.Tx, t *models.Transaction) error {
		t.Notes = appendNote(t.Notes, s.now(), "cancelled", reason)
		return nil
	})

	s.record(ctx, "TRANSACTION_CANCELLED", operator, err, t)
	if err != nil {
		return nil, upstreamErr(op, err)
	}
	return t, nil
}

// transition блокирует транзакцию, проверяет переход и сохраняет новый статус вместе с эффектами apply.
// apply получает ctx с таймаутом хранилища.
func (s *TransactionService) transition(
	ctx context.Context,
	id uuid.UUID,
	target models.TransactionStatus,
	apply func(ctx context.Context, tx pgx.Tx, t *models.Transaction) error,
) (*models.Transaction, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var result *models.Transaction
	err := s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		t, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		result = t

		if !t.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", custom_err.ErrInvalidStateTransition, t.Status, target)
		}

		updated := *t
		updated.Status = target
		if err := apply(ctx, tx, &updated); err != nil {
			return err
		}
		if err := s.repo.UpdateStatusTx(ctx, tx, &updated); err != nil {
			return err
		}
		result = &updated
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	const op = "service.TransactionService.Get"

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, upstreamErr(op, err)
	}
	return t, nil
}

func (s *TransactionService) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	const op = "service.TransactionService.GetByReference"

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.repo.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		return nil, upstreamErr(op, err)
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, operator models.Operator, limit, offset int) ([]*models.Transaction, error) {
	const op = "service.TransactionService.List"

	limit = ListLimit(limit)
	if offset < 0 {
		return nil, custom_err.NewValidationError("offset", "must not be negative")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repo.ListByOperator(ctx, operator.ID, limit, offset)
	if err != nil {
		return nil, upstreamErr(op, err)
	}
	return list, nil
}

// ListLimit размер страницы истории: 0 и меньше дают значение по умолчанию, больше максимума обрезается
func ListLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// settlementLegs: наличные от клиента приходят в кассу, выплата наличными уходит из неё
func settlementLegs(t *models.Transaction) []SettlementLeg {
	var legs []SettlementLeg

	switch t.Type {
	case models.TransactionRemittance, models.TransactionExchange, models.TransactionDeposit:
		legs = append(legs, SettlementLeg{Type: models.CashOpDeposit, Amount: t.SendAmount})
	}

	switch t.Type {
	case models.TransactionExchange, models.TransactionWithdrawal:
		if t.PayoutMethod == models.PayoutCash && t.ReceiveAmount.IsPositive() {
			legs = append(legs, SettlementLeg{Type: models.CashOpWithdrawal, Amount: t.ReceiveAmount})
		}
	}
	return legs
}

func appendNote(notes string, at time.Time, event, reason string) string {
	line := fmt.Sprintf("[%s] %s", at.Format(time.RFC3339), event)
	if reason = strings.TrimSpace(reason); reason != "" {
		line += ": " + reason
	}
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

func (s *TransactionService) record(ctx context.Context, action string, operator models.Operator, err error, t *models.Transaction) {
	status := models.AuditSuccess
	details := action
	metadata := map[string]string{"branch_id": operator.BranchID}

	if t != nil {
		details = fmt.Sprintf("%s %s -> %s", t.Type, t.SendAmount, t.ReceiveAmount)
		metadata["transaction_id"] = t.ID.String()
		metadata["reference"] = t.Reference
		metadata["status"] = string(t.Status)
	}
	if err != nil {
		status = models.AuditFailure
		details = err.Error()
	}
	s.audit.Record(ctx, newAuditEvent(action, auditModuleTransactions, details, status, operator.ID, metadata))
}
