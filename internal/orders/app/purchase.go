package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/telemetry"
	"github.com/dejobratic/checkout/internal/validation"
)

// PurchaseOrders marks every order for email as paid and inactive.
//
// Updates run concurrently, bounded by the configured concurrency, and the call
// returns only after all of them have settled. Results keep the order in which
// the orders were listed; a failed update is reported in its own slot and does
// not abort the rest.
func (s *Service) PurchaseOrders(ctx context.Context, email string) ([]domain.PurchaseResult, error) {
	var results []domain.PurchaseResult
	err := s.observe(ctx, "purchase", func(ctx context.Context) error {
		if err := validation.Gate(validation.Required(validation.Fields{"email": email}, "email")); err != nil {
			return err
		}

		orders, err := s.repo.ListByEmail(ctx, email)
		if err != nil {
			return err
		}

		results = s.purchaseAll(ctx, orders)

		purchased := make([]string, 0, len(results))
		for _, r := range results {
			if !r.Failed() {
				purchased = append(purchased, r.OrderID)
			}
		}
		if len(purchased) > 0 {
			if err := s.events.PublishOrdersPurchased(ctx, email, purchased); err != nil {
				s.logger.WarnContext(ctx, "failed to publish orders purchased event", "error", err, "email", email)
			}
		}

		s.logger.InfoContext(ctx, "orders purchased",
			"email", email,
			"orders", len(results),
			"failed", len(results)-len(purchased),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) purchaseAll(ctx context.Context, orders []domain.Order) []domain.PurchaseResult {
	ctx, span := telemetry.StartSpan(ctx, "OrderService.purchase.fanout")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int("orders.count", len(orders)),
		attribute.Int("concurrency", s.purchaseConcurrency),
	)

	results := make([]domain.PurchaseResult, len(orders))

	var g errgroup.Group
	g.SetLimit(s.purchaseConcurrency)

	for i, order := range orders {
		g.Go(func() error {
			results[i] = s.purchaseOne(ctx, order.ID)
			return nil
		})
	}
	_ = g.Wait()

	telemetry.Finish(span, nil)
	return results
}

func (s *Service) purchaseOne(ctx context.Context, id string) domain.PurchaseResult {
	ack, err := s.repo.Update(ctx, id, domain.PurchasePatch())
	s.metrics.RecordPurchaseSlot(ctx, err == nil)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to purchase order", "error", err, "order_id", id)
		return domain.PurchaseResult{OrderID: id, Error: err.Error()}
	}
	return domain.PurchaseResult{OrderID: id, Ack: &ack}
}
