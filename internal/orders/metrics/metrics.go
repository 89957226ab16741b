package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal  metric.Int64Counter
	operationDuration   metric.Float64Histogram
	purchaseSlotsTotal  metric.Int64Counter
	notificationsTotal  metric.Int64Counter
	validationFailTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.operationDuration, err = meter.Float64Histogram(
		"order_operation_duration_seconds",
		metric.WithDescription("Duration of order lifecycle operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_operation_duration histogram: %w", err)
	}

	m.purchaseSlotsTotal, err = meter.Int64Counter(
		"order_purchase_slots_total",
		metric.WithDescription("Per-order outcomes of bulk purchases"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_purchase_slots_total counter: %w", err)
	}

	m.notificationsTotal, err = meter.Int64Counter(
		"order_notifications_total",
		metric.WithDescription("Order notification attempts"),
		metric.WithUnit("{mail}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_notifications_total counter: %w", err)
	}

	m.validationFailTotal, err = meter.Int64Counter(
		"order_validation_failures_total",
		metric.WithDescription("Requests rejected by required-field validation"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_validation_failures_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordOperation(ctx context.Context, operation string, durationSeconds float64, outcome string) {
	m.operationDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordPurchaseSlot(ctx context.Context, success bool) {
	m.purchaseSlotsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordNotification(ctx context.Context, success bool) {
	m.notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordValidationFailure(ctx context.Context, operation string) {
	m.validationFailTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
