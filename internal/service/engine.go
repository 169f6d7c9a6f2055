package service

import (
	"gw-teller-ledger/internal/storage/postgres"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// EngineDeps хранилища и внешние зависимости движка
type EngineDeps struct {
	Registers    postgres.RegisterRepository
	Transactions postgres.TransactionRepository
	Rates        postgres.RateRepository
	RateSource   RateStore
	TxManager    TxManager
	Audit        AuditSink
	Log          *slog.Logger
}

type EngineOptions struct {
	RateCacheTTL      time.Duration
	StoreTimeout      time.Duration
	ReferenceAttempts int
	FeePercent        decimal.Decimal
	FeeMin            decimal.Decimal
	FeeMax            decimal.Decimal
}

// EngineContext единственный на процесс набор сервисов ядра: один кэш курсов, один калькулятор комиссий
type EngineContext struct {
	Resolver     *RateResolver
	Fees         *FeeCalculator
	References   *ReferenceGenerator
	Registers    *RegisterService
	Transactions *TransactionService
	Rates        *RateService
	Audit        AuditSink
}

func NewEngineContext(deps EngineDeps, opts EngineOptions) *EngineContext {
	audit := deps.Audit
	if audit == nil {
		audit = NoOpAuditSink{}
	}
	source := deps.RateSource
	if source == nil {
		source = deps.Rates
	}

	resolver := NewRateResolver(source, opts.RateCacheTTL, opts.StoreTimeout, deps.Log)
	fees := NewFeeCalculator(NewPercentageFee(opts.FeePercent, opts.FeeMin, opts.FeeMax))
	references := NewReferenceGenerator()
	registers := NewRegisterService(deps.Registers, deps.TxManager, audit, opts.StoreTimeout, deps.Log)

	transactions := NewTransactionService(
		deps.Transactions,
		deps.TxManager,
		resolver,
		fees,
		references,
		registers,
		audit,
		opts.ReferenceAttempts,
		opts.StoreTimeout,
		deps.Log,
	)

	return &EngineContext{
		Resolver:     resolver,
		Fees:         fees,
		References:   references,
		Registers:    registers,
		Transactions: transactions,
		Rates:        NewRateService(deps.Rates, deps.TxManager, resolver, audit, opts.StoreTimeout, deps.Log),
		Audit:        audit,
	}
}
