package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/ports"
)

// Repository provides an in-memory store useful for local development and tests.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	seq    map[string]uint64
	next   uint64
	now    func() time.Time
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		orders: make(map[string]domain.Order),
		seq:    make(map[string]uint64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores a new order under a freshly generated ID.
func (r *Repository) Insert(_ context.Context, draft domain.NewOrder) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	order := domain.Order{
		ID:          uuid.NewString(),
		Email:       draft.Email,
		Name:        draft.Name,
		Description: draft.Description,
		Amount:      draft.Amount,
		Paid:        draft.Paid,
		Active:      draft.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.orders[order.ID] = order
	r.next++
	r.seq[order.ID] = r.next

	created := order
	return &created, nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := order
	return &copy, nil
}

// ListByEmail returns every order for email in insertion order.
func (r *Repository) ListByEmail(_ context.Context, email string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.Order{}
	for _, order := range r.orders {
		if order.Email == email {
			result = append(result, order)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return r.seq[result[i].ID] < r.seq[result[j].ID]
	})

	return result, nil
}

// Update applies patch to the order with the given ID. An unknown ID is
// acknowledged with Matched set to zero.
func (r *Repository) Update(_ context.Context, id string, patch domain.Patch) (domain.UpdateAck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.UpdateAck{OrderID: id}, nil
	}

	order = order.Apply(patch, r.now())
	r.orders[id] = order

	updated := order
	return domain.UpdateAck{OrderID: id, Matched: 1, Order: &updated}, nil
}
