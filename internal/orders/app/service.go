package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/checkout/internal/notification/email"
	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/metrics"
	"github.com/dejobratic/checkout/internal/orders/ports"
	"github.com/dejobratic/checkout/internal/telemetry"
	"github.com/dejobratic/checkout/internal/validation"
)

const defaultPurchaseConcurrency = 8

// Dependencies are the collaborators a Service is built from.
type Dependencies struct {
	Repo        ports.OrderRepository
	Events      ports.EventBus
	Notifier    ports.Notifier
	Idempotency ports.IdempotencyStore
	Logger      *slog.Logger
	Metrics     *metrics.Metrics

	// PurchaseConcurrency caps in-flight updates during a bulk purchase.
	PurchaseConcurrency int
}

// Service bundles the order lifecycle use cases exposed over the API.
type Service struct {
	repo      ports.OrderRepository
	events    ports.EventBus
	notifier  ports.Notifier
	idemStore ports.IdempotencyStore
	logger    *slog.Logger
	metrics   *metrics.Metrics

	purchaseConcurrency int
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := deps.PurchaseConcurrency
	if concurrency <= 0 {
		concurrency = defaultPurchaseConcurrency
	}

	return &Service{
		repo:                deps.Repo,
		events:              deps.Events,
		notifier:            deps.Notifier,
		idemStore:           deps.Idempotency,
		logger:              logger,
		metrics:             deps.Metrics,
		purchaseConcurrency: concurrency,
	}
}

// CreateOrderInput captures the payload for creating an order. Nil fields were absent from the request.
type CreateOrderInput struct {
	Email       *string  `json:"email"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
}

func (in CreateOrderInput) fields() validation.Fields {
	return validation.Fields{
		"email":       in.Email,
		"name":        in.Name,
		"description": in.Description,
		"amount":      in.Amount,
	}
}

// UpdateOrderInput captures the payload for rewriting an order's details.
type UpdateOrderInput struct {
	OrderID     string  `json:"-"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (in UpdateOrderInput) fields() validation.Fields {
	return validation.Fields{
		"order_id":    in.OrderID,
		"name":        in.Name,
		"description": in.Description,
	}
}

// ListOrders returns every order recorded for email.
func (s *Service) ListOrders(ctx context.Context, email string) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.observe(ctx, "list", func(ctx context.Context) error {
		if err := validation.Gate(validation.Required(validation.Fields{"email": email}, "email")); err != nil {
			return err
		}

		var err error
		orders, err = s.repo.ListByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder stores a new unpaid, active order and tells the customer about it.
// Notification and event failures are logged and do not fail the call.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	var order *domain.Order
	err := s.observe(ctx, "create", func(ctx context.Context) error {
		src := input.fields()
		if err := validation.Gate(
			validation.Required(src, "email"),
			validation.Required(src, "name"),
			validation.Required(src, "description"),
			validation.Required(src, "amount"),
		); err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "creating order", "email", *input.Email, "amount", *input.Amount)

		var err error
		order, err = s.repo.Insert(ctx, domain.Draft(*input.Email, *input.Name, *input.Description, *input.Amount))
		if err != nil {
			s.metrics.RecordOrderCreated(ctx, false)
			return err
		}
		s.metrics.RecordOrderCreated(ctx, true)

		s.notifyCreated(ctx, *order)
		if err := s.events.PublishOrderCreated(ctx, *order); err != nil {
			s.logger.WarnContext(ctx, "failed to publish order created event", "error", err, "order_id", order.ID)
		}

		s.logger.InfoContext(ctx, "order created successfully", "order_id", order.ID, "email", order.Email)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) notifyCreated(ctx context.Context, order domain.Order) {
	mail, err := email.RenderAddedToCart(order)
	if err == nil {
		err = s.notifier.SendMail(ctx, mail)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to send order notification", "error", err, "order_id", order.ID)
	}
}

// GetOrder retrieves an order by ID. An unknown ID yields ports.ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := s.observe(ctx, "read", func(ctx context.Context) error {
		if err := validation.Gate(validation.Required(validation.Fields{"order_id": id}, "order_id")); err != nil {
			return err
		}

		var err error
		order, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrder rewrites name and description. Payment and archive state are untouched.
func (s *Service) UpdateOrder(ctx context.Context, input UpdateOrderInput) (domain.UpdateAck, error) {
	var ack domain.UpdateAck
	err := s.observe(ctx, "update", func(ctx context.Context) error {
		src := input.fields()
		if err := validation.Gate(
			validation.Required(src, "order_id"),
			validation.Required(src, "name"),
			validation.Required(src, "description"),
		); err != nil {
			return err
		}

		var err error
		ack, err = s.repo.Update(ctx, input.OrderID, domain.DetailsPatch(*input.Name, *input.Description))
		return err
	})
	return ack, err
}

// ArchiveOrder soft-deletes an order by clearing its active flag.
func (s *Service) ArchiveOrder(ctx context.Context, id string) (domain.UpdateAck, error) {
	var ack domain.UpdateAck
	err := s.observe(ctx, "archive", func(ctx context.Context) error {
		if err := validation.Gate(validation.Required(validation.Fields{"order_id": id}, "order_id")); err != nil {
			return err
		}

		var err error
		ack, err = s.repo.Update(ctx, id, domain.ArchivePatch())
		if err != nil {
			return err
		}

		if ack.Matched > 0 {
			if err := s.events.PublishOrderArchived(ctx, id); err != nil {
				s.logger.WarnContext(ctx, "failed to publish order archived event", "error", err, "order_id", id)
			}
		}
		return nil
	})
	return ack, err
}

// SaveIdempotentResponse writes response details for a key. Failures are logged
// here because callers treat them as non-fatal.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	if err := s.idemStore.Save(ctx, key, response); err != nil {
		s.logger.WarnContext(ctx, "failed to save idempotent response",
			"error", err,
			"order_id", response.OrderID,
		)
		return fmt.Errorf("save idempotent response: %w", err)
	}
	return nil
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

// observe runs fn inside a span and records its duration and outcome.
func (s *Service) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderService."+operation)
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", operation))

	start := time.Now()
	err := fn(ctx)
	outcome := outcomeOf(err)
	s.metrics.RecordOperation(ctx, operation, time.Since(start).Seconds(), outcome)

	switch outcome {
	case outcomeInvalid:
		s.metrics.RecordValidationFailure(ctx, operation)
		s.logger.InfoContext(ctx, "order request rejected", "operation", operation, "error", err)
	case outcomeNotFound:
		s.logger.InfoContext(ctx, "order not found", "operation", operation)
	case outcomeError:
		s.logger.ErrorContext(ctx, "order operation failed", "operation", operation, "error", err)
	}

	telemetry.AddSpanAttributes(span, attribute.String("outcome", outcome))
	telemetry.Finish(span, err, ports.ErrNotFound)
	return err
}

const (
	outcomeSuccess  = "success"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

func outcomeOf(err error) string {
	var verr *validation.Error
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &verr):
		return outcomeInvalid
	case errors.Is(err, ports.ErrNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
