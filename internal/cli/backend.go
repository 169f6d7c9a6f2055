package cli

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/config"
	"gw-teller-ledger/internal/db"
	"gw-teller-ledger/internal/service"
	"gw-teller-ledger/internal/storage/postgres"
	"log/slog"
)

// PgBackend работает напрямую с postgres. События аудита ledgerctl не публикует.
type PgBackend struct {
	cfg *config.AdminConfig
	log *slog.Logger
}

func NewPgBackend(cfg *config.AdminConfig, log *slog.Logger) *PgBackend {
	return &PgBackend{cfg: cfg, log: log}
}

func (b *PgBackend) Migrate() error {
	return db.RunMigrations(b.cfg.DB.MigrationURL(), b.cfg.MigrationsPath, b.log)
}

func (b *PgBackend) Rates(ctx context.Context) (service.Rates, func(), error) {
	const op = "cli.PgBackend.Rates"

	poolCfg := db.DefaultPoolConfig("ledgerctl", 2)
	poolCfg.RetryAttempts = 1
	pool, err := db.NewPool(ctx, b.cfg.DB.DSN(), poolCfg, b.log)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	repo := postgres.NewRateRepository(pool)
	resolver := service.NewRateResolver(repo, 0, b.cfg.StoreTimeout, b.log)
	rates := service.NewRateService(repo, service.NewPgxTxManager(pool), resolver, service.NoOpAuditSink{}, b.cfg.StoreTimeout, b.log)

	return rates, pool.Close, nil
}

func (b *PgBackend) TokenSecret() (string, string) {
	return b.cfg.JWTSecret, b.cfg.JWTIssuer
}
