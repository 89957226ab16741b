package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/checkout/internal/orders/domain"
)

// NoopEventBus logs events instead of sending them. Used when no brokers are configured.
type NoopEventBus struct {
	logger *slog.Logger
}

func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	n.logger.DebugContext(ctx, "event::order_created", "order_id", order.ID, "email", order.Email)
	return nil
}

func (n *NoopEventBus) PublishOrderArchived(ctx context.Context, orderID string) error {
	n.logger.DebugContext(ctx, "event::order_archived", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrdersPurchased(ctx context.Context, email string, orderIDs []string) error {
	n.logger.DebugContext(ctx, "event::orders_purchased", "email", email, "count", len(orderIDs))
	return nil
}
