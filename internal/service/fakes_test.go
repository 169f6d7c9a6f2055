package service

import (
	"context"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/pkg/logger"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore хранилище в памяти для register, transaction и rate репозиториев
type memStore struct {
	mu sync.Mutex

	sessions     map[uuid.UUID]models.CashRegisterSession
	balances     map[uuid.UUID]map[models.Currency]models.Money
	operations   []models.CashOperation
	transactions map[uuid.UUID]models.Transaction
	references   map[string]uuid.UUID
	rates        []models.ExchangeRate

	locks map[uuid.UUID]rowLock

	rateCalls        int
	failCloseSession error
}

func newMemStore() *memStore {
	return &memStore{
		sessions:     make(map[uuid.UUID]models.CashRegisterSession),
		balances:     make(map[uuid.UUID]map[models.Currency]models.Money),
		transactions: make(map[uuid.UUID]models.Transaction),
		references:   make(map[string]uuid.UUID),
		locks:        make(map[uuid.UUID]rowLock),
	}
}

// rowLock блокировка строки как SELECT ... FOR UPDATE: ожидание прерывается по ctx
type rowLock chan struct{}

// fakeTx держит блокировки строк до конца транзакции и журнал отката
type fakeTx struct {
	pgx.Tx
	held map[uuid.UUID]rowLock
	undo []func()
}

func (tx *fakeTx) release() {
	for id, lock := range tx.held {
		<-lock
		delete(tx.held, id)
	}
}

// fakeTxManager откатывает записи транзакции при ошибке. Транзакции над разными строками идут параллельно.
type fakeTxManager struct {
	store *memStore
}

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &fakeTx{held: make(map[uuid.UUID]rowLock)}
	defer tx.release()

	if err := fn(tx); err != nil {
		m.store.rollback(tx)
		return err
	}
	return nil
}

func (s *memStore) rollback(tx *fakeTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// onRollback вызывается под s.mu
func (s *memStore) onRollback(tx pgx.Tx, undo func()) {
	if ftx, ok := tx.(*fakeTx); ok {
		ftx.undo = append(ftx.undo, undo)
	}
}

func (s *memStore) rowLockFor(id uuid.UUID) rowLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = make(rowLock, 1)
		s.locks[id] = lock
	}
	return lock
}

func (s *memStore) lockRow(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	ftx, ok := tx.(*fakeTx)
	if !ok {
		return nil
	}
	if _, held := ftx.held[id]; held {
		return nil
	}

	lock := s.rowLockFor(id)
	select {
	case lock <- struct{}{}:
		ftx.held[id] = lock
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// holdRow держит строку заблокированной снаружи, как конкурирующая транзакция
func (s *memStore) holdRow(id uuid.UUID) (release func()) {
	lock := s.rowLockFor(id)
	lock <- struct{}{}
	return func() { <-lock }
}

func (s *memStore) sessionCopy(session models.CashRegisterSession) *models.CashRegisterSession {
	session.Balances = make(map[models.Currency]models.Money)
	for c, m := range s.balances[session.ID] {
		session.Balances[c] = m
	}
	return &session
}

func (s *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.CashRegisterSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, custom_err.ErrNotFound
	}
	return s.sessionCopy(session), nil
}

func (s *memStore) GetOpenSessionByOperator(_ context.Context, operatorID string) (*models.CashRegisterSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.OperatorID == operatorID && session.Status == models.SessionOpen {
			return s.sessionCopy(session), nil
		}
	}
	return nil, custom_err.ErrNotFound
}

func (s *memStore) ListOperations(_ context.Context, sessionID uuid.UUID) ([]*models.CashOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ops []*models.CashOperation
	for i := range s.operations {
		if s.operations[i].SessionID == sessionID {
			op := s.operations[i]
			ops = append(ops, &op)
		}
	}
	return ops, nil
}

func (s *memStore) CreateSessionTx(_ context.Context, tx pgx.Tx, session *models.CashRegisterSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.OperatorID == session.OperatorID && existing.Status == models.SessionOpen {
			return custom_err.ErrAlreadyOpen
		}
	}
	stored := *session
	stored.Balances = nil
	s.sessions[session.ID] = stored
	s.balances[session.ID] = make(map[models.Currency]models.Money)
	s.onRollback(tx, func() {
		delete(s.sessions, session.ID)
		delete(s.balances, session.ID)
	})
	return nil
}

func (s *memStore) GetSessionForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.CashRegisterSession, error) {
	if err := s.lockRow(ctx, tx, id); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, id)
}

func (s *memStore) GetOpenSessionForUpdateTx(ctx context.Context, tx pgx.Tx, operatorID string) (*models.CashRegisterSession, error) {
	session, err := s.GetOpenSessionByOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if err := s.lockRow(ctx, tx, session.ID); err != nil {
		return nil, err
	}

	// после ожидания блокировки смена могла закрыться
	session, err = s.GetSession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, custom_err.ErrNotFound
	}
	return session, nil
}

func (s *memStore) SetBalanceTx(_ context.Context, tx pgx.Tx, sessionID uuid.UUID, balance models.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if balance.IsNegative() {
		return custom_err.ErrInsufficientFunds
	}
	if s.balances[sessionID] == nil {
		s.balances[sessionID] = make(map[models.Currency]models.Money)
	}
	prev, had := s.balances[sessionID][balance.Currency]
	s.balances[sessionID][balance.Currency] = balance
	s.onRollback(tx, func() {
		if had {
			s.balances[sessionID][balance.Currency] = prev
			return
		}
		delete(s.balances[sessionID], balance.Currency)
	})
	return nil
}

func (s *memStore) CreateOperationTx(_ context.Context, tx pgx.Tx, op *models.CashOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operations = append(s.operations, *op)
	id := op.ID
	s.onRollback(tx, func() {
		s.operations = slices.DeleteFunc(s.operations, func(o models.CashOperation) bool { return o.ID == id })
	})
	return nil
}

func (s *memStore) CloseSessionTx(_ context.Context, tx pgx.Tx, id uuid.UUID, closedAt time.Time, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCloseSession != nil {
		return s.failCloseSession
	}
	session, ok := s.sessions[id]
	if !ok || session.Status != models.SessionOpen {
		return custom_err.ErrSessionClosed
	}
	prev := session
	session.Status = models.SessionClosed
	session.ClosedAt = &closedAt
	session.CloseNotes = notes
	s.sessions[id] = session
	s.onRollback(tx, func() { s.sessions[id] = prev })
	return nil
}

func (s *memStore) balance(sessionID uuid.UUID, currency models.Currency) models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.balances[sessionID][currency]; ok {
		return b
	}
	return models.ZeroMoney(currency)
}

func (s *memStore) operationsOf(sessionID uuid.UUID, opType models.CashOperationType) []models.CashOperation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ops []models.CashOperation
	for _, op := range s.operations {
		if op.SessionID == sessionID && op.Type == opType {
			ops = append(ops, op)
		}
	}
	return ops
}

func (s *memStore) Create(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.references[t.Reference]; exists {
		return custom_err.ErrDuplicateReference
	}
	s.references[t.Reference] = t.ID
	s.transactions[t.ID] = *t
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, custom_err.ErrNotFound
	}
	return &t, nil
}

func (s *memStore) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	s.mu.Lock()
	id, ok := s.references[reference]
	s.mu.Unlock()

	if !ok {
		return nil, custom_err.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *memStore) ListByOperator(_ context.Context, operatorID string, limit, offset int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*models.Transaction
	for _, t := range s.transactions {
		if t.OperatorID == operatorID {
			tc := t
			list = append(list, &tc)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	if offset >= len(list) {
		return []*models.Transaction{}, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *memStore) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Transaction, error) {
	if err := s.lockRow(ctx, tx, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *memStore) UpdateStatusTx(_ context.Context, tx pgx.Tx, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.transactions[t.ID]
	if !ok || stored.Status != models.StatusPending {
		return custom_err.ErrInvalidStateTransition
	}
	prev := stored
	stored.Status = t.Status
	stored.Notes = t.Notes
	stored.CompletedAt = t.CompletedAt
	stored.SettlementSessionID = t.SettlementSessionID
	s.transactions[t.ID] = stored
	s.onRollback(tx, func() { s.transactions[prev.ID] = prev })
	return nil
}

func (s *memStore) GetCurrentRate(_ context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rateCalls++

	var best *models.ExchangeRate
	for i := range s.rates {
		r := s.rates[i]
		if r.Base != base || r.Target != target || !r.UsableAt(at) {
			continue
		}
		if r.SupersededAt != nil && !r.SupersededAt.After(at) {
			continue
		}
		if best == nil || r.EffectiveAt.After(best.EffectiveAt) {
			best = &r
		}
	}
	if best == nil {
		return nil, custom_err.ErrNotFound
	}
	return best, nil
}

func (s *memStore) ListCurrentRates(ctx context.Context, at time.Time) ([]*models.ExchangeRate, error) {
	s.mu.Lock()
	pairs := make(map[[2]models.Currency]bool)
	for _, r := range s.rates {
		pairs[[2]models.Currency{r.Base, r.Target}] = true
	}
	s.mu.Unlock()

	var list []*models.ExchangeRate
	for pair := range pairs {
		if r, err := s.GetCurrentRate(ctx, pair[0], pair[1], at); err == nil {
			list = append(list, r)
		}
	}
	return list, nil
}

func (s *memStore) SupersedeRatesTx(_ context.Context, tx pgx.Tx, base, target models.Currency, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for i := range s.rates {
		r := &s.rates[i]
		if r.Base == base && r.Target == target && r.SupersededAt == nil && !r.EffectiveAt.After(at) {
			superseded := at
			r.SupersededAt = &superseded
			ids = append(ids, r.ID)
		}
	}
	s.onRollback(tx, func() {
		for i := range s.rates {
			if slices.Contains(ids, s.rates[i].ID) {
				s.rates[i].SupersededAt = nil
			}
		}
	})
	return int64(len(ids)), nil
}

func (s *memStore) CreateRateTx(_ context.Context, tx pgx.Tx, rate *models.ExchangeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rates = append(s.rates, *rate)
	id := rate.ID
	s.onRollback(tx, func() {
		s.rates = slices.DeleteFunc(s.rates, func(r models.ExchangeRate) bool { return r.ID == id })
	})
	return nil
}

func (s *memStore) addRate(base, target models.Currency, rate string, effectiveAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := decimal.RequireFromString(rate)
	s.rates = append(s.rates, models.ExchangeRate{
		ID:          uuid.New(),
		Base:        base,
		Target:      target,
		Rate:        d,
		BuyRate:     d,
		SellRate:    d,
		EffectiveAt: effectiveAt,
		CreatedAt:   effectiveAt,
	})
}

func (s *memStore) rateLookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateCalls
}

// recordingAudit собирает события аудита
type recordingAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, event models.AuditEvent) {
	a.mu.Lock()
	a.events = append(a.events, event)
	a.mu.Unlock()
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

func (a *recordingAudit) last() models.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events[len(a.events)-1]
}

// testEngine полностью собранный движок поверх memStore
type testEngine struct {
	store  *memStore
	audit  *recordingAudit
	engine *EngineContext
}

func newTestEngine() *testEngine {
	return newTestEngineWithTimeout(time.Second)
}

func newTestEngineWithTimeout(storeTimeout time.Duration) *testEngine {
	store := newMemStore()
	audit := &recordingAudit{}

	engine := NewEngineContext(EngineDeps{
		Registers:    store,
		Transactions: store,
		Rates:        store,
		TxManager:    &fakeTxManager{store: store},
		Audit:        audit,
		Log:          logger.NewDiscard(),
	}, EngineOptions{
		RateCacheTTL:      5 * time.Minute,
		StoreTimeout:      storeTimeout,
		ReferenceAttempts: 5,
		FeePercent:        decimal.RequireFromString("0.03"),
	})

	return &testEngine{store: store, audit: audit, engine: engine}
}

var (
	teller1 = models.Operator{ID: "op-1", BranchID: "br-1", Role: models.RoleTeller}
	teller2 = models.Operator{ID: "op-2", BranchID: "br-1", Role: models.RoleTeller}
	admin   = models.Operator{ID: "adm-1", BranchID: "hq", Role: models.RoleAdmin}
)

func mustMoney(amount string, currency models.Currency) models.Money {
	m, err := models.ParseMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}
