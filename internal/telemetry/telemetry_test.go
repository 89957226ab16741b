package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig() Config {
	return Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func shutdown(t *testing.T, tel *Telemetry) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"missing version", func(c *Config) { c.ServiceVersion = "" }, ErrMissingServiceVersion},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, ErrInvalidSampleRate},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.5 }, ErrInvalidSampleRate},
		{"unknown exporter", func(c *Config) { c.MetricsExporter = "statsd" }, ErrUnknownMetricsExporter},
		{"prometheus exporter", func(c *Config) { c.MetricsExporter = MetricsExporterPrometheus }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected %v wrapped in ErrInvalidConfig, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""

		if _, err := Initialize(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("exports spans through the provided exporter", func(t *testing.T) {
		exp := tracetest.NewInMemoryExporter()
		cfg := testConfig()
		cfg.EnableTracing = true

		tel, err := Initialize(context.Background(), cfg, WithTraceExporter(exp))
		if err != nil {
			t.Fatalf("Initialize() failed: %v", err)
		}

		defer shutdown(t, tel)

		_, span := StartSpan(context.Background(), "unit")
		span.End()
		if err := tel.tracerProvider.ForceFlush(context.Background()); err != nil {
			t.Fatalf("flush: %v", err)
		}

		spans := exp.GetSpans()
		if len(spans) != 1 || spans[0].Name != "unit" {
			t.Errorf("expected one span named unit, got %v", spans)
		}
	})

	t.Run("meter is a no-op when metrics are disabled", func(t *testing.T) {
		tel, err := Initialize(context.Background(), testConfig())
		if err != nil {
			t.Fatalf("Initialize() failed: %v", err)
		}
		defer shutdown(t, tel)

		if tel.Meter("test") == nil {
			t.Fatal("expected a meter")
		}
		if tel.MetricsHandler() != nil {
			t.Error("expected no metrics handler")
		}
	})

	t.Run("uses the provided metric reader", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		cfg := testConfig()
		cfg.EnableMetrics = true

		tel, err := Initialize(context.Background(), cfg, WithMetricReader(reader))
		if err != nil {
			t.Fatalf("Initialize() failed: %v", err)
		}
		defer shutdown(t, tel)

		counter, err := tel.Meter("test").Int64Counter("unit_total")
		if err != nil {
			t.Fatalf("create counter: %v", err)
		}
		counter.Add(context.Background(), 1)
	})

	t.Run("prometheus exporter serves scraped metrics", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableMetrics = true
		cfg.MetricsExporter = MetricsExporterPrometheus

		tel, err := Initialize(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Initialize() failed: %v", err)
		}
		defer shutdown(t, tel)

		counter, err := tel.Meter("test").Int64Counter("scrape_probe_total")
		if err != nil {
			t.Fatalf("create counter: %v", err)
		}
		counter.Add(context.Background(), 3)

		handler := tel.MetricsHandler()
		if handler == nil {
			t.Fatal("expected metrics handler")
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "scrape_probe") {
			t.Errorf("expected scrape output to contain scrape_probe, got:\n%s", rec.Body.String())
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, sdktrace.NeverSample().Description()},
		{1, sdktrace.AlwaysSample().Description()},
		{0.5, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}

	for _, tt := range tests {
		if got := createSampler(tt.rate).Description(); got != tt.want {
			t.Errorf("createSampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}
