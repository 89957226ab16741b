package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dejobratic/checkout/internal/orders/domain"
)

type recordingWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestBus(w messageWriter) *EventBus {
	bus := newEventBus(w)
	bus.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return bus
}

func decodeEvent(t *testing.T, msg kafkago.Message) Event {
	t.Helper()
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event
}

func TestEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("order created is keyed by order id", func(t *testing.T) {
		w := &recordingWriter{}
		order := domain.Order{ID: "o-1", Email: "a@x.com", Name: "Widget", Active: true}

		if err := newTestBus(w).PublishOrderCreated(ctx, order); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		if len(w.msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(w.msgs))
		}
		if string(w.msgs[0].Key) != "o-1" {
			t.Errorf("expected key o-1, got %s", w.msgs[0].Key)
		}
		event := decodeEvent(t, w.msgs[0])
		if event.Type != EventOrderCreated || event.Order == nil || event.Order.Name != "Widget" {
			t.Errorf("unexpected event %+v", event)
		}
		if (headerCarrier{msg: &w.msgs[0]}).Get("event-type") != EventOrderCreated {
			t.Error("expected event-type header")
		}
	})

	t.Run("orders purchased is keyed by email", func(t *testing.T) {
		w := &recordingWriter{}

		if err := newTestBus(w).PublishOrdersPurchased(ctx, "a@x.com", []string{"o-1", "o-2"}); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		if string(w.msgs[0].Key) != "a@x.com" {
			t.Errorf("expected key a@x.com, got %s", w.msgs[0].Key)
		}
		event := decodeEvent(t, w.msgs[0])
		if event.Type != EventOrdersPurchased || len(event.OrderIDs) != 2 {
			t.Errorf("unexpected event %+v", event)
		}
	})

	t.Run("order archived", func(t *testing.T) {
		w := &recordingWriter{}

		if err := newTestBus(w).PublishOrderArchived(ctx, "o-9"); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
		if event := decodeEvent(t, w.msgs[0]); event.Type != EventOrderArchived || event.OrderID != "o-9" {
			t.Errorf("unexpected event %+v", event)
		}
	})

	t.Run("wraps writer errors", func(t *testing.T) {
		writeErr := errors.New("broker down")
		err := newTestBus(&recordingWriter{err: writeErr}).PublishOrderArchived(ctx, "o-1")

		if !errors.Is(err, writeErr) {
			t.Errorf("expected wrapped writer error, got %v", err)
		}
	})

	t.Run("injects trace context into headers", func(t *testing.T) {
		prevProp := otel.GetTextMapPropagator()
		otel.SetTextMapPropagator(propagation.TraceContext{})
		defer otel.SetTextMapPropagator(prevProp)

		tp := sdktrace.NewTracerProvider()
		spanCtx, span := tp.Tracer("test").Start(ctx, "publish")
		defer span.End()

		w := &recordingWriter{}
		if err := newTestBus(w).PublishOrderArchived(spanCtx, "o-1"); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		if (headerCarrier{msg: &w.msgs[0]}).Get("traceparent") == "" {
			t.Error("expected traceparent header")
		}
	})
}
