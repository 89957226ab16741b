package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/checkout/internal/kafka"
	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/ports"
	"github.com/dejobratic/checkout/internal/telemetry"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return e.observe(ctx, "EventBus.PublishOrderCreated", kafka.EventOrderCreated,
		[]attribute.KeyValue{attribute.String("order.id", order.ID)},
		func(ctx context.Context) error { return e.bus.PublishOrderCreated(ctx, order) },
	)
}

func (e *ObservableEventBus) PublishOrderArchived(ctx context.Context, orderID string) error {
	return e.observe(ctx, "EventBus.PublishOrderArchived", kafka.EventOrderArchived,
		[]attribute.KeyValue{attribute.String("order.id", orderID)},
		func(ctx context.Context) error { return e.bus.PublishOrderArchived(ctx, orderID) },
	)
}

func (e *ObservableEventBus) PublishOrdersPurchased(ctx context.Context, email string, orderIDs []string) error {
	return e.observe(ctx, "EventBus.PublishOrdersPurchased", kafka.EventOrdersPurchased,
		[]attribute.KeyValue{attribute.Int("orders.count", len(orderIDs))},
		func(ctx context.Context) error { return e.bus.PublishOrdersPurchased(ctx, email, orderIDs) },
	)
}

func (e *ObservableEventBus) observe(ctx context.Context, spanName, eventType string, attrs []attribute.KeyValue, publish func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("event.type", eventType))...)

	start := time.Now()
	err := publish(ctx)
	e.metrics.RecordPublish(ctx, eventType, time.Since(start).Seconds(), err == nil)

	telemetry.Finish(span, err)
	return err
}
