package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dejobratic/checkout/internal/config"
	"github.com/dejobratic/checkout/internal/database"
	idemmemory "github.com/dejobratic/checkout/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/checkout/internal/idempotency/postgres"
	idemredis "github.com/dejobratic/checkout/internal/idempotency/redis"
	"github.com/dejobratic/checkout/internal/kafka"
	"github.com/dejobratic/checkout/internal/notification/email"
	"github.com/dejobratic/checkout/internal/orders/adapters"
	httpadapter "github.com/dejobratic/checkout/internal/orders/adapters/http"
	ordersmemory "github.com/dejobratic/checkout/internal/orders/adapters/memory"
	orderspostgres "github.com/dejobratic/checkout/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/checkout/internal/orders/app"
	ordersmetrics "github.com/dejobratic/checkout/internal/orders/metrics"
	"github.com/dejobratic/checkout/internal/orders/ports"
	"github.com/dejobratic/checkout/internal/telemetry"
)

const meterName = "github.com/dejobratic/checkout"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:     cfg.Service.Name,
		ServiceVersion:  cfg.Service.Version,
		Environment:     cfg.Service.Environment,
		OTLPEndpoint:    cfg.Telemetry.OTelEndpoint,
		EnableTracing:   cfg.Telemetry.EnableTracing,
		EnableMetrics:   cfg.Telemetry.EnableMetrics,
		MetricsExporter: cfg.Telemetry.MetricsExporter,
		SampleRate:      cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(meterName)
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create kafka metrics", "error", err)
		os.Exit(1)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	var (
		pool     *pgxpool.Pool
		repo     ports.OrderRepository
		checkers []readinessCheck
	)

	needsPool := cfg.Database.Backend == config.BackendPostgres || cfg.Idempotency.Backend == config.BackendPostgres
	if needsPool {
		pool, err = database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		checkers = append(checkers, readinessCheck{name: "database", ping: func(ctx context.Context) error {
			return database.CheckHealth(ctx, pool)
		}})

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
			logger.Info("migrations completed successfully")
		}
	}

	switch cfg.Database.Backend {
	case config.BackendPostgres:
		repo = orderspostgres.NewRepository(pool)
	default:
		logger.Warn("using in-memory order storage; data is lost on restart")
		repo = ordersmemory.NewRepository()
	}

	var idemStore ports.IdempotencyStore
	switch cfg.Idempotency.Backend {
	case config.BackendPostgres:
		idemStore = idempostgres.NewStore(pool, cfg.Idempotency.TTL)
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Idempotency.RedisAddr})
		defer client.Close()
		store := idemredis.NewStore(client, cfg.Idempotency.TTL)
		checkers = append(checkers, readinessCheck{name: "redis", ping: store.Ping})
		idemStore = store
	default:
		idemStore = idemmemory.NewStore(cfg.Idempotency.TTL)
	}

	var eventBus ports.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		bus := kafka.NewEventBus(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := bus.Close(); err != nil {
				logger.Error("failed to close kafka writer", "error", err)
			}
		}()
		eventBus = bus
		logger.Info("publishing order events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		eventBus = kafka.NewNoopEventBus(logger)
	}

	mailer := email.NewClient(cfg.Notification.MailerURL, cfg.Notification.Timeout)

	service := ordersapp.NewService(ordersapp.Dependencies{
		Repo:                adapters.NewObservableRepository(repo, dbMetrics),
		Events:              adapters.NewObservableEventBus(eventBus, kafkaMetrics),
		Notifier:            adapters.NewObservableNotifier(mailer, orderMetrics),
		Idempotency:         idemStore,
		Logger:              logger,
		Metrics:             orderMetrics,
		PurchaseConcurrency: cfg.Purchase.MaxConcurrency,
	})

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/readyz", readinessHandler(checkers)).Methods(http.MethodGet)
	if handler := tel.MetricsHandler(); handler != nil {
		router.Handle(cfg.HTTP.MetricsPath, handler).Methods(http.MethodGet)
	}

	api := router.NewRoute().Subrouter()
	api.Use(func(next http.Handler) http.Handler { return httpadapter.WithMetrics(next, httpMetrics) })
	httpadapter.NewHandler(service).Register(api)

	var handler http.Handler = router
	handler = httpadapter.WithLogging(handler, logger)
	handler = httpadapter.WithRecovery(handler, logger)
	handler = otelhttp.NewHandler(handler, "checkout-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"storage", cfg.Database.Backend,
			"idempotency", cfg.Idempotency.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

type readinessCheck struct {
	name string
	ping func(ctx context.Context) error
}

func readinessHandler(checks []readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check.ping(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"check":  check.name,
					"error":  err.Error(),
				})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
