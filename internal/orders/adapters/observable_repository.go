package adapters

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/checkout/internal/database"
	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/ports"
	"github.com/dejobratic/checkout/internal/telemetry"
)

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.ListByEmail")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", "list_by_email"))

	start := time.Now()
	orders, err := r.repo.ListByEmail(ctx, email)
	r.metrics.RecordQuery(ctx, "list_orders_by_email", time.Since(start).Seconds(), err)

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.Finish(span, err)
	return orders, err
}

// GetByID treats ports.ErrNotFound as a successful query: a missing order is
// an answer from the store, not a store failure.
func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)

	queryErr := err
	if errors.Is(err, ports.ErrNotFound) {
		queryErr = nil
	}
	r.metrics.RecordQuery(ctx, "get_order_by_id", time.Since(start).Seconds(), queryErr)

	telemetry.AddSpanAttributes(span, attribute.Bool("result.found", order != nil))
	telemetry.Finish(span, err, ports.ErrNotFound)
	return order, err
}

func (r *ObservableRepository) Insert(ctx context.Context, draft domain.NewOrder) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Insert")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", "insert"))

	start := time.Now()
	order, err := r.repo.Insert(ctx, draft)
	r.metrics.RecordQuery(ctx, "insert_order", time.Since(start).Seconds(), err)

	if order != nil {
		telemetry.AddSpanAttributes(span, attribute.String("order.id", order.ID))
	}
	telemetry.Finish(span, err)
	return order, err
}

func (r *ObservableRepository) Update(ctx context.Context, id string, patch domain.Patch) (domain.UpdateAck, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Update")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "update"),
	)

	start := time.Now()
	ack, err := r.repo.Update(ctx, id, patch)
	r.metrics.RecordQuery(ctx, "update_order", time.Since(start).Seconds(), err)

	telemetry.AddSpanAttributes(span, attribute.Int64("result.matched", ack.Matched))
	telemetry.Finish(span, err)
	return ack, err
}
