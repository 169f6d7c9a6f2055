package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gw-teller-ledger/internal/models"
)

func TestNewEngineContext_SharesOneResolver(t *testing.T) {
	e := newTestEngine()

	assert.Same(t, e.engine.Resolver, e.engine.Rates.resolver)
	assert.Same(t, e.engine.Resolver, e.engine.Transactions.resolver)
	assert.Same(t, e.engine.Fees, e.engine.Transactions.fees)
	assert.Same(t, e.engine.Registers, e.engine.Transactions.settlement)
	assert.Equal(t, 5, e.engine.Transactions.attempts)
}

func TestNewEngineContext_DefaultsToNoOpAudit(t *testing.T) {
	store := newMemStore()
	engine := NewEngineContext(EngineDeps{
		Registers:    store,
		Transactions: store,
		Rates:        store,
		TxManager:    &fakeTxManager{store: store},
	}, EngineOptions{})

	assert.IsType(t, NoOpAuditSink{}, engine.Audit)
	assert.Equal(t, DefaultReferenceAttempts, engine.Transactions.attempts)
	assert.Equal(t, DefaultRateCacheTTL, engine.Resolver.ttl)
}

func TestReferenceGenerator_Format(t *testing.T) {
	g := NewReferenceGenerator()
	g.now = func() time.Time { return time.UnixMicro(1_772_366_400_123_456) }
	g.random = func(int) int { return 42 }

	assert.Equal(t, "REM001234560042", g.Generate(models.TransactionRemittance))
	assert.Regexp(t, regexp.MustCompile(`^WDR\d{12}$`), g.Generate(models.TransactionWithdrawal))
	assert.Equal(t, "TRX", g.Generate("OTHER")[:3])
}
