package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations применяет все миграции ledger и проверяет, что схема не осталась в dirty состоянии
func RunMigrations(dsn string, migrationsPath string, log *slog.Logger) error {
	const op = "db.RunMigrations"

	if dsn == "" {
		return errors.New("DSN для миграций не может быть пустым")
	}
	if migrationsPath == "" {
		return errors.New("путь к файлам миграций не может быть пустым")
	}

	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("%s: не удалось создать экземпляр мигратора: %w", op, err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn("ошибка закрытия мигратора", slog.Any("source_error", srcErr), slog.Any("db_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: ошибка при выполнении миграций: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("%s: ошибка при проверке версии миграций: %w", op, err)
	}
	if dirty {
		return fmt.Errorf("%s: обнаружена 'грязная' миграция версии %d. Исправьте вручную", op, version)
	}

	log.Info("миграции применены", slog.Uint64("version", uint64(version)))
	return nil
}
