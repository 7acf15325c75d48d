package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env             string
	LogLevel        string
	StorageDriver   string
	TxMaxRetries    int
	ShutdownTimeout time.Duration
	Server          ServerConfig
	Postgres        PostgresConfig
	Redis           RedisConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	IdempotencyTTL     time.Duration
}

// RedisConfig with an empty Addr disables every redis-backed feature.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	env := getenv("GO_ENV", "development")
	logLevel := getenv("LOG_LEVEL", "info")

	storageDriver := getenv("STORAGE_DRIVER", StorageDriverPostgres)
	if storageDriver != StorageDriverPostgres && storageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("%s: invalid STORAGE_DRIVER %q", op, storageDriver)
	}

	txMaxRetries, err := strconv.Atoi(getenv("TX_MAX_RETRIES", "3"))
	if err != nil || txMaxRetries < 0 {
		return nil, fmt.Errorf("%s: invalid TX_MAX_RETRIES: %q", op, os.Getenv("TX_MAX_RETRIES"))
	}

	shutdownTimeout, err := time.ParseDuration(getenv("SHUTDOWN_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SHUTDOWN_TIMEOUT: %w", op, err)
	}

	serverPort, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	rateLimit, err := strconv.Atoi(getenv("RATE_LIMIT_PER_MINUTE", "0"))
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("%s: invalid RATE_LIMIT_PER_MINUTE: %q", op, os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}

	idempotencyTTL, err := time.ParseDuration(getenv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid IDEMPOTENCY_TTL: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:               getenv("SERVER_HOST", "localhost"),
		Port:               serverPort,
		RateLimitPerMinute: rateLimit,
		IdempotencyTTL:     idempotencyTTL,
	}

	postgresCfg, err := postgresFromEnv(storageDriver == StorageDriverPostgres)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisDB, err := strconv.Atoi(getenv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid REDIS_DB: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	return &Config{
		Env:             env,
		LogLevel:        logLevel,
		StorageDriver:   storageDriver,
		TxMaxRetries:    txMaxRetries,
		ShutdownTimeout: shutdownTimeout,
		Server:          serverCfg,
		Postgres:        postgresCfg,
		Redis:           redisCfg,
	}, nil
}

// postgresFromEnv reads the POSTGRES_* variables. Credentials are only
// mandatory when postgres is the selected storage driver.
func postgresFromEnv(required bool) (PostgresConfig, error) {
	port, err := strconv.Atoi(getenv("POSTGRES_PORT", "5432"))
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	maxConns, err := strconv.ParseInt(getenv("POSTGRES_MAX_CONNS", "0"), 10, 32)
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("invalid POSTGRES_MAX_CONNS: %w", err)
	}

	cfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     getenv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}

	if !required {
		return cfg, nil
	}

	if cfg.User == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}
	if cfg.Password == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}
	if cfg.Name == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
