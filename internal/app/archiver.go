package app

import (
	"context"
	"fmt"
	"gw-teller-ledger/internal/config"
	"gw-teller-ledger/internal/kafka"
	"gw-teller-ledger/internal/storage/mongodb"
	"gw-teller-ledger/pkg/logger"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Archiver читает события аудита из kafka и складывает их в MongoDB
type Archiver struct {
	log      *slog.Logger
	logFile  *os.File
	cfg      *config.ArchiverConfig
	consumer *kafka.Consumer
	store    *mongodb.AuditStore
}

func NewArchiver() (*Archiver, error) {
	cfg, err := config.NewArchiverConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	loggerWithFile, err := logger.NewLoggerWithFile(cfg.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	log := loggerWithFile.Logger

	log.Info("инициализация архиватора аудита",
		slog.String("kafka_topic", cfg.Kafka.Topic),
		slog.String("mongo_database", cfg.MongoDB.Database))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	defer cancel()

	store, err := mongodb.NewAuditStore(
		ctx,
		cfg.MongoDB.URI,
		cfg.MongoDB.Database,
		cfg.MongoDB.Collection,
		cfg.MongoDB.Timeout,
	)
	if err != nil {
		loggerWithFile.LogFile.Close()
		return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}
	log.Info("подключение к MongoDB установлено")

	consumer, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		store,
		log,
	)
	if err != nil {
		store.Close()
		loggerWithFile.LogFile.Close()
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	return &Archiver{
		log:      log,
		logFile:  loggerWithFile.LogFile,
		cfg:      cfg,
		consumer: consumer,
		store:    store,
	}, nil
}

func (a *Archiver) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.consumer.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}
	a.log.Info("kafka consumer запущен, ожидание событий аудита")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdownChan
	a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))

	cancel()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()

	if err := a.consumer.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}

	a.log.Info("закрытие соединения с MongoDB")
	if err := a.store.Close(); err != nil {
		a.log.Error("ошибка при закрытии MongoDB", slog.String("error", err.Error()))
	}

	a.log.Info("архиватор остановлен")
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}
	return nil
}
