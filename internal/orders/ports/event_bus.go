package ports

import (
	"context"

	"github.com/dejobratic/checkout/internal/orders/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
	PublishOrderArchived(ctx context.Context, orderID string) error
	PublishOrdersPurchased(ctx context.Context, email string, orderIDs []string) error
}
