package adapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/checkout/internal/orders/metrics"
	"github.com/dejobratic/checkout/internal/orders/ports"
	"github.com/dejobratic/checkout/internal/telemetry"
)

type ObservableNotifier struct {
	notifier ports.Notifier
	metrics  *metrics.Metrics
}

func NewObservableNotifier(notifier ports.Notifier, metrics *metrics.Metrics) *ObservableNotifier {
	return &ObservableNotifier{
		notifier: notifier,
		metrics:  metrics,
	}
}

func (n *ObservableNotifier) SendMail(ctx context.Context, mail ports.Mail) error {
	ctx, span := telemetry.StartSpan(ctx, "Notifier.SendMail")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("mail.subject", mail.Subject))

	err := n.notifier.SendMail(ctx, mail)
	n.metrics.RecordNotification(ctx, err == nil)

	telemetry.Finish(span, err)
	return err
}
