package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int
	MinConns          int
	HealthCheckPeriod time.Duration
	PoolTimeout       time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	ApplicationName   string
}

// DefaultPoolConfig настройки пула для сервисов ledger
func DefaultPoolConfig(appName string, maxConns int) PoolConfig {
	if maxConns <= 0 {
		maxConns = 20
	}
	return PoolConfig{
		MaxConns:          maxConns,
		MinConns:          2,
		HealthCheckPeriod: time.Minute,
		PoolTimeout:       5 * time.Second,
		RetryAttempts:     5,
		RetryDelay:        500 * time.Millisecond,
		ApplicationName:   appName,
	}
}

func NewPool(ctx context.Context, dsn string, cfg PoolConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	const op = "db.NewPool"

	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: не удалось распарсить DSN: %w", op, err)
	}

	conf.MaxConns = int32(cfg.MaxConns)
	conf.MinConns = int32(cfg.MinConns)
	conf.HealthCheckPeriod = cfg.HealthCheckPeriod
	conf.MaxConnLifetime = 30 * time.Minute
	conf.MaxConnIdleTime = 5 * time.Minute
	if cfg.ApplicationName != "" {
		conf.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	conf.ConnConfig.ConnectTimeout = cfg.PoolTimeout

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(cfg.RetryDelay * time.Duration(1<<(i-1))):
			}
		}

		pool, err = pgxpool.NewWithConfig(ctx, conf)
		if err != nil {
			log.Warn("не удалось создать пул соединений",
				slog.String("op", op),
				slog.Int("attempt", i+1),
				slog.Int("max_attempts", attempts),
				slog.String("error", err.Error()))
			continue
		}

		if err = pool.Ping(ctx); err != nil {
			log.Warn("ping БД не удался",
				slog.String("op", op),
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))
			pool.Close()
			continue
		}

		log.Info("подключение к базе данных успешно", slog.String("application", cfg.ApplicationName))
		return pool, nil
	}

	return nil, fmt.Errorf("%s: не удалось создать пул соединений после %d попыток: %w", op, attempts, err)
}
