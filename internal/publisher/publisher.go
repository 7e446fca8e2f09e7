// Package publisher emits order lifecycle events to Kafka for downstream
// consumers (fulfilment, receipts, analytics). Delivery is best effort; the
// purchase never waits on the broker.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/francoabl/HuertoHogar/internal/domain"
)

const topicOrderConfirmed = "order-confirmed"

type OrderEvents struct {
	writer *kafka.Writer
}

func NewOrderEvents(brokers ...string) *OrderEvents {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topicOrderConfirmed,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OrderEvents{writer: w}
}

type orderConfirmedEvent struct {
	OrderID           string  `json:"order_id"`
	BuyOrder          string  `json:"buy_order"`
	AuthorizationCode string  `json:"authorization_code"`
	Amount            float64 `json:"amount"`
	CardType          string  `json:"card_type"`
	ConfirmedAt       string  `json:"confirmed_at"`
}

// OrderConfirmed publishes one message per confirmed order, keyed by order
// id so per-order ordering holds across partitions.
func (p *OrderEvents) OrderConfirmed(ctx context.Context, orderID string, result *domain.PaymentResult) error {
	event := orderConfirmedEvent{
		OrderID:           orderID,
		BuyOrder:          result.BuyOrder,
		AuthorizationCode: result.AuthorizationCode,
		Amount:            result.Amount,
		CardType:          string(result.CardType),
		ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order confirmed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(orderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_confirmed")},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OrderEvents) Close() error {
	return p.writer.Close()
}
