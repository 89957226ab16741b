package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/ports"
)

const orderColumns = `id::text, email, name, description, amount::float8, paid, active, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, draft domain.NewOrder) (*domain.Order, error) {
	query := `
		INSERT INTO orders (email, name, description, amount, paid, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + orderColumns

	order, err := scanOrder(r.pool.QueryRow(ctx, query,
		draft.Email,
		draft.Name,
		draft.Description,
		draft.Amount,
		draft.Paid,
		draft.Active,
		time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	return order, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	return order, nil
}

func (r *Repository) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE email = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// Update applies patch in a single statement. Paid is OR-ed and active is
// AND-ed so neither flag can be reverted by any patch.
func (r *Repository) Update(ctx context.Context, id string, patch domain.Patch) (domain.UpdateAck, error) {
	ack := domain.UpdateAck{OrderID: id}
	if _, err := uuid.Parse(id); err != nil {
		return ack, nil
	}

	query := `
		UPDATE orders
		SET name = COALESCE($2::text, name),
		    description = COALESCE($3::text, description),
		    paid = paid OR COALESCE($4::boolean, FALSE),
		    active = active AND COALESCE($5::boolean, TRUE),
		    updated_at = $6
		WHERE id = $1
		RETURNING ` + orderColumns

	order, err := scanOrder(r.pool.QueryRow(ctx, query,
		id,
		patch.Name,
		patch.Description,
		patch.Paid,
		patch.Active,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ack, nil
		}
		return ack, fmt.Errorf("update order: %w", err)
	}

	ack.Matched = 1
	ack.Order = order
	return ack, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.Email,
		&order.Name,
		&order.Description,
		&order.Amount,
		&order.Paid,
		&order.Active,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}
