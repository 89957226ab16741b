package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/dejobratic/checkout/internal/orders/domain"
)

const (
	EventOrderCreated    = "order.created"
	EventOrderArchived   = "order.archived"
	EventOrdersPurchased = "orders.purchased"
)

// Event is the JSON envelope written to the topic.
type Event struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	OrderID    string        `json:"order_id,omitempty"`
	Email      string        `json:"email,omitempty"`
	OrderIDs   []string      `json:"order_ids,omitempty"`
	Order      *domain.Order `json:"order,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventBus publishes order lifecycle events to a single Kafka topic.
type EventBus struct {
	writer messageWriter
	now    func() time.Time
}

func NewEventBus(brokers []string, topic string) *EventBus {
	return newEventBus(&kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
	})
}

func newEventBus(writer messageWriter) *EventBus {
	return &EventBus{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

func (b *EventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return b.publish(ctx, order.ID, Event{
		Type:    EventOrderCreated,
		OrderID: order.ID,
		Email:   order.Email,
		Order:   &order,
	})
}

func (b *EventBus) PublishOrderArchived(ctx context.Context, orderID string) error {
	return b.publish(ctx, orderID, Event{
		Type:    EventOrderArchived,
		OrderID: orderID,
	})
}

// PublishOrdersPurchased is keyed by email so a customer's events share a partition.
func (b *EventBus) PublishOrdersPurchased(ctx context.Context, email string, orderIDs []string) error {
	return b.publish(ctx, email, Event{
		Type:     EventOrdersPurchased,
		Email:    email,
		OrderIDs: orderIDs,
	})
}

func (b *EventBus) publish(ctx context.Context, key string, event Event) error {
	event.OccurredAt = b.now()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafkago.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafkago.Header{{Key: "event-type", Value: []byte(event.Type)}},
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}
	return nil
}

func (b *EventBus) Close() error {
	return b.writer.Close()
}
