package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/checkout/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Insert(ctx context.Context, order domain.NewOrder) (*domain.Order, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.UpdateAck, error)
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)
