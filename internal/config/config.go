package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort       string `envconfig:"APP_PORT" default:"8080"`
	LogFile        string `envconfig:"LOG_FILE" default:"teller-ledger.log"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	DB             DBConfig
	JWT            JWTConfig
	GRPC           GRPCConfig
	Kafka          KafkaConfig
	MongoDB        MongoDBConfig
	Ledger         LedgerConfig
}

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     required:"true"`
	Port     string `envconfig:"POSTGRES_PORT"     required:"true"`
	User     string `envconfig:"POSTGRES_USER"     required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB"       required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"20"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
	Issuer string `envconfig:"JWT_ISSUER" default:""`
}

type GRPCConfig struct {
	Enabled       bool          `envconfig:"GRPC_ENABLED" default:"true"`
	Port          string        `envconfig:"GRPC_PORT" default:"50051"`
	RateSource    string        `envconfig:"RATE_SOURCE" default:"postgres"` // postgres | grpc
	ExchangerAddr string        `envconfig:"EXCHANGER_GRPC_ADDR" default:"localhost:50051"`
	Timeout       time.Duration `envconfig:"GRPC_TIMEOUT" default:"5s"`
}

type KafkaConfig struct {
	Brokers   []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic     string   `envconfig:"AUDIT_TOPIC" default:"teller-audit"`
	Enabled   bool     `envconfig:"KAFKA_ENABLED" default:"true"`
	GroupID   string   `envconfig:"KAFKA_GROUP_ID" default:"audit-archiver"`
	Workers   int      `envconfig:"KAFKA_WORKERS" default:"5"`
	QueueSize int      `envconfig:"AUDIT_QUEUE_SIZE" default:"1000"`
}

type MongoDBConfig struct {
	URI        string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database   string        `envconfig:"MONGO_DATABASE" default:"teller_audit"`
	Collection string        `envconfig:"MONGO_COLLECTION" default:"audit_events"`
	Timeout    time.Duration `envconfig:"MONGO_TIMEOUT" default:"10s"`
}

type LedgerConfig struct {
	RateCacheTTL      time.Duration   `envconfig:"RATE_CACHE_TTL" default:"5m"`
	RateCacheSweep    time.Duration   `envconfig:"RATE_CACHE_SWEEP" default:"1m"`
	StoreTimeout      time.Duration   `envconfig:"STORE_TIMEOUT" default:"3s"`
	ReferenceAttempts int             `envconfig:"REFERENCE_ATTEMPTS" default:"5"`
	FeePercent        decimal.Decimal `envconfig:"FEE_PERCENT" default:"0.03"`
	FeeMin            decimal.Decimal `envconfig:"FEE_MIN" default:"0"`
	FeeMax            decimal.Decimal `envconfig:"FEE_MAX" default:"0"`
}

// ArchiverConfig конфигурация архиватора аудита: ему не нужны postgres и jwt
type ArchiverConfig struct {
	LogFile  string `envconfig:"LOG_FILE" default:"audit-archiver.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Kafka    KafkaConfig
	MongoDB  MongoDBConfig
}

// AdminConfig конфигурация ledgerctl
type AdminConfig struct {
	MigrationsPath string        `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"warn"`
	StoreTimeout   time.Duration `envconfig:"STORE_TIMEOUT" default:"3s"`
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER"`
	DB             DBConfig
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := load(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}

	return &cfg, nil
}

func NewArchiverConfig() (*ArchiverConfig, error) {
	var cfg ArchiverConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewAdminConfig() (*AdminConfig, error) {
	var cfg AdminConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(cfg any) error {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.GRPC.RateSource {
	case "postgres", "grpc":
	default:
		return fmt.Errorf("RATE_SOURCE must be postgres or grpc, got %q", c.GRPC.RateSource)
	}
	if c.Ledger.ReferenceAttempts < 1 {
		return fmt.Errorf("REFERENCE_ATTEMPTS must be positive")
	}
	if c.Ledger.FeePercent.IsNegative() || c.Ledger.FeePercent.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("FEE_PERCENT must be within [0, 1]")
	}
	return nil
}

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
