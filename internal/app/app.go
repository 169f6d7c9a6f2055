package app

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/api/handlers"
	"gw-teller-ledger/internal/auth"
	"gw-teller-ledger/internal/config"
	"gw-teller-ledger/internal/db"
	"gw-teller-ledger/internal/grpc_client"
	"gw-teller-ledger/internal/grpc_server"
	"gw-teller-ledger/internal/kafka"
	"gw-teller-ledger/internal/server"
	"gw-teller-ledger/internal/service"
	"gw-teller-ledger/internal/storage/postgres"
	"gw-teller-ledger/pkg/logger"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type App struct {
	log           *slog.Logger
	logFile       *os.File
	cfg           *config.Config
	pool          *pgxpool.Pool
	server        *server.Server
	grpcServer    *grpc.Server
	grpcHealth    *health.Server
	listener      net.Listener
	rateClient    *grpc_client.RateClient
	kafkaProducer kafka.Producer
	audit         *service.AuditDispatcher
	engine        *service.EngineContext
}

func NewApp() (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	loggerWithFile, err := logger.NewLoggerWithFile(cfg.LogFile, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	log := loggerWithFile.Logger
	log.Info("инициализация teller ledger",
		slog.String("http_port", cfg.HTTPPort),
		slog.String("rate_source", cfg.GRPC.RateSource))

	a := &App{
		log:     log,
		logFile: loggerWithFile.LogFile,
		cfg:     cfg,
	}
	if err := a.init(); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg := a.cfg

	a.log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(cfg.DB.MigrationURL(), cfg.MigrationsPath, a.log); err != nil {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	pool, err := db.NewPool(context.Background(), cfg.DB.DSN(), db.DefaultPoolConfig("teller-ledger", cfg.DB.MaxConns), a.log)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	a.pool = pool
	a.log.Info("подключение к базе данных установлено")

	rateRepo := postgres.NewRateRepository(pool)

	var rateSource service.RateStore = rateRepo
	if cfg.GRPC.RateSource == "grpc" {
		client, err := grpc_client.NewRateClient(cfg.GRPC.ExchangerAddr, cfg.GRPC.Timeout, a.log)
		if err != nil {
			return fmt.Errorf("ошибка подключения к сервису курсов: %w", err)
		}
		a.rateClient = client
		rateSource = client
	}

	if cfg.Kafka.Enabled {
		a.log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
		a.kafkaProducer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, a.log)
		if err != nil {
			return fmt.Errorf("ошибка инициализации kafka: %w", err)
		}
	} else {
		a.log.Info("kafka отключен в конфигурации")
		a.kafkaProducer = kafka.NewNoOpProducer(a.log)
	}
	a.audit = service.NewAuditDispatcher(a.kafkaProducer, cfg.Kafka.Workers, cfg.Kafka.QueueSize, a.log)

	a.engine = service.NewEngineContext(service.EngineDeps{
		Registers:    postgres.NewRegisterRepository(pool),
		Transactions: postgres.NewTransactionRepository(pool),
		Rates:        rateRepo,
		RateSource:   rateSource,
		TxManager:    service.NewPgxTxManager(pool),
		Audit:        a.audit,
		Log:          a.log,
	}, service.EngineOptions{
		RateCacheTTL:      cfg.Ledger.RateCacheTTL,
		StoreTimeout:      cfg.Ledger.StoreTimeout,
		ReferenceAttempts: cfg.Ledger.ReferenceAttempts,
		FeePercent:        cfg.Ledger.FeePercent,
		FeeMin:            cfg.Ledger.FeeMin,
		FeeMax:            cfg.Ledger.FeeMax,
	})

	a.server = server.NewServer(cfg.HTTPPort, a.log)
	a.server.RegisterSwagger()
	a.server.RegisterHealth(pool.Ping)
	a.server.RegisterAPI(auth.NewJWTValidator(cfg.JWT.Secret, cfg.JWT.Issuer), server.Handlers{
		Registers:    handlers.NewRegisterHandler(a.engine.Registers),
		Transactions: handlers.NewTransactionHandler(a.engine.Transactions),
		Rates:        handlers.NewRateHandler(a.engine.Rates),
	})

	if cfg.GRPC.Enabled {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("ошибка создания listener: %w", err)
		}
		a.listener = listener
		a.grpcServer = grpc.NewServer()
		a.grpcHealth = grpc_server.Register(a.grpcServer, grpc_server.NewRateServer(rateRepo, a.log))
		a.log.Info("gRPC сервер курсов инициализирован", slog.String("port", cfg.GRPC.Port))
	}

	return nil
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.engine.Resolver.StartSweeper(ctx, a.cfg.Ledger.RateCacheSweep)

	serverErr := make(chan error, 2)
	go func() {
		a.log.Info("http сервер запускается", slog.String("port", a.cfg.HTTPPort))
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()
	if a.grpcServer != nil {
		go func() {
			a.log.Info("gRPC сервер запускается", slog.String("port", a.cfg.GRPC.Port))
			if err := a.grpcServer.Serve(a.listener); err != nil {
				serverErr <- fmt.Errorf("ошибка запуска gRPC сервера: %w", err)
			}
		}()
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-serverErr:
		a.log.Error("сервер остановился с ошибкой", slog.String("error", runErr.Error()))
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}
	a.stopGRPC(shutdownCtx)

	if err := a.audit.Shutdown(shutdownCtx); err != nil {
		a.log.Error("ошибка при остановке аудита", slog.String("error", err.Error()))
	}

	a.closeResources()
	return runErr
}

func (a *App) stopGRPC(ctx context.Context) {
	if a.grpcServer == nil {
		return
	}
	if a.grpcHealth != nil {
		a.grpcHealth.Shutdown()
	}

	done := make(chan struct{})
	go func() {
		a.log.Info("остановка gRPC сервера")
		a.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		a.log.Info("gRPC сервер остановлен")
	case <-ctx.Done():
		a.log.Warn("timeout graceful shutdown, force stop")
		a.grpcServer.Stop()
	}
}

// closeResources закрывает то, что успело открыться
func (a *App) closeResources() {
	if a.rateClient != nil {
		if err := a.rateClient.Close(); err != nil {
			a.log.Error("ошибка при закрытии gRPC клиента", slog.String("error", err.Error()))
		}
	}
	if a.kafkaProducer != nil {
		a.log.Info("закрытие kafka producer")
		if err := a.kafkaProducer.Close(); err != nil {
			a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.log.Info("закрытие соединения с базой данных")
		a.pool.Close()
	}

	a.log.Info("приложение остановлено")
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}
}
