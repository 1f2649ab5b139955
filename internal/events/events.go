// Package events publishes order lifecycle events for downstream consumers
// (notifications, analytics). Publication is best-effort: the order's
// persisted state is always the source of truth.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderPaid          = "order.paid"
	TypeOrderPaymentFailed = "order.payment_failed"
)

// OrderEvent is the wire payload for a terminal payment outcome.
type OrderEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	GrandTotal    int64     `json:"grand_total_cents"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// NewOrderEvent stamps an event with an id and timestamp.
func NewOrderEvent(eventType, orderID, userID string) OrderEvent {
	return OrderEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Kafka publishes events keyed by order id so per-order ordering holds.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokersCSV, topic string) *Kafka {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (k *Kafka) Publish(ctx context.Context, e OrderEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: data,
		Time:  e.OccurredAt,
	})
}

func (k *Kafka) Close() error { return k.writer.Close() }
