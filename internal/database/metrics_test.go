package database

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordQuery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	ctx := context.Background()
	metrics.RecordQuery(ctx, "insert_order", 0.1, nil)
	metrics.RecordQuery(ctx, "insert_order", 0.2, nil)
	metrics.RecordQuery(ctx, "list_orders_by_email", 0.05, errors.New("timeout"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	counts := map[string]uint64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "db_query_duration_seconds" {
				continue
			}
			histogram, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatal("Expected Histogram[float64] data type")
			}
			for _, dp := range histogram.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[op.AsString()+"/"+outcome.AsString()] = dp.Count
			}
		}
	}

	if counts["insert_order/success"] != 2 {
		t.Errorf("expected 2 successful inserts, got %d", counts["insert_order/success"])
	}
	if counts["list_orders_by_email/error"] != 1 {
		t.Errorf("expected 1 failed list, got %d", counts["list_orders_by_email/error"])
	}
}
