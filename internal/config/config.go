package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP         HTTPConfig
	Database     DatabaseConfig
	Kafka        KafkaConfig
	Notification NotificationConfig
	Idempotency  IdempotencyConfig
	Purchase     PurchaseConfig
	Telemetry    TelemetryConfig
	Service      ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

type DatabaseConfig struct {
	Backend        string
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type NotificationConfig struct {
	MailerURL string
	Timeout   time.Duration
}

type IdempotencyConfig struct {
	Backend   string
	RedisAddr string
	TTL       time.Duration
}

type PurchaseConfig struct {
	MaxConcurrency int
}

type TelemetryConfig struct {
	LogLevel        string
	OTelEndpoint    string
	EnableTracing   bool
	EnableMetrics   bool
	MetricsExporter string
	SampleRate      float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var ErrUnknownBackend = errors.New("unknown backend")

const (
	defaultHTTPPort            = 8080
	defaultMetricsPath         = "/metrics"
	defaultShutdownGrace       = 15
	defaultStorageBackend      = BackendPostgres
	defaultMigrationsPath      = "migrations"
	defaultAutoMigrate         = true
	defaultKafkaTopic          = "checkout.orders"
	defaultMailerURL           = "http://localhost:8013"
	defaultMailerTimeout       = 5 * time.Second
	defaultIdempotencyBackend  = BackendMemory
	defaultRedisAddr           = "localhost:6379"
	defaultIdempotencyTTL      = 24 * time.Hour
	defaultPurchaseConcurrency = 8
	defaultServiceName         = "checkout-api"
	defaultServiceVersion      = "0.1.0"
	defaultEnvironment         = "development"
	defaultLogLevel            = "info"
	defaultMetricsExporter     = "prometheus"
	defaultOTelSampleRate      = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	kafkaCfg := loadKafkaConfig()

	notificationCfg, err := loadNotificationConfig()
	if err != nil {
		return nil, fmt.Errorf("loading notification config: %w", err)
	}

	idemCfg, err := loadIdempotencyConfig()
	if err != nil {
		return nil, fmt.Errorf("loading idempotency config: %w", err)
	}

	purchaseCfg, err := loadPurchaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading purchase config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	return &Config{
		HTTP:         httpCfg,
		Database:     dbCfg,
		Kafka:        kafkaCfg,
		Notification: notificationCfg,
		Idempotency:  idemCfg,
		Purchase:     purchaseCfg,
		Telemetry:    telCfg,
		Service:      serviceCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	backend := getEnvOrDefault("STORAGE_BACKEND", defaultStorageBackend)
	if backend != BackendPostgres && backend != BackendMemory {
		return DatabaseConfig{}, fmt.Errorf("STORAGE_BACKEND %q: %w", backend, ErrUnknownBackend)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		Backend:        backend,
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	if value, ok := os.LookupEnv("KAFKA_BROKERS"); ok && value != "" {
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}

	return KafkaConfig{
		Brokers: brokers,
		Topic:   getEnvOrDefault("KAFKA_TOPIC", defaultKafkaTopic),
	}
}

func loadNotificationConfig() (NotificationConfig, error) {
	timeout, err := getDurationEnv("MAILER_TIMEOUT", defaultMailerTimeout)
	if err != nil {
		return NotificationConfig{}, err
	}

	return NotificationConfig{
		MailerURL: getEnvOrDefault("MAILER_URL", defaultMailerURL),
		Timeout:   timeout,
	}, nil
}

func loadIdempotencyConfig() (IdempotencyConfig, error) {
	backend := getEnvOrDefault("IDEMPOTENCY_BACKEND", defaultIdempotencyBackend)
	switch backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return IdempotencyConfig{}, fmt.Errorf("IDEMPOTENCY_BACKEND %q: %w", backend, ErrUnknownBackend)
	}

	ttl, err := getDurationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL)
	if err != nil {
		return IdempotencyConfig{}, err
	}

	return IdempotencyConfig{
		Backend:   backend,
		RedisAddr: getEnvOrDefault("REDIS_ADDR", defaultRedisAddr),
		TTL:       ttl,
	}, nil
}

func loadPurchaseConfig() (PurchaseConfig, error) {
	concurrency, err := getIntEnv("PURCHASE_MAX_CONCURRENCY", defaultPurchaseConcurrency)
	if err != nil {
		return PurchaseConfig{}, err
	}
	if concurrency < 1 {
		return PurchaseConfig{}, fmt.Errorf("invalid PURCHASE_MAX_CONCURRENCY: must be positive, got %d", concurrency)
	}
	return PurchaseConfig{MaxConcurrency: concurrency}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:        getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing:   getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics:   getBoolEnv("OTEL_ENABLE_METRICS", true),
		MetricsExporter: getEnvOrDefault("OTEL_METRICS_EXPORTER", defaultMetricsExporter),
		SampleRate:      sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "checkout")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
