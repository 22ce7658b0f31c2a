package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/agrimart/agrimart/internal/core/domain"
)

const (
	typeOrderPlaced    = "order.placed"
	typeOrderCancelled = "order.cancelled"
)

// Publisher emits order lifecycle events to Kafka, keyed by order id.
// With no brokers configured every publish is a no-op, so local setups
// run without a broker.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokersCSV, topic string) *Publisher {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return &Publisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Publisher) Enabled() bool {
	return p.writer != nil
}

type orderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"orderId"`
	UserID     string      `json:"userId"`
	TotalPrice string      `json:"totalPrice"`
	Status     string      `json:"status"`
	Lines      []orderLine `json:"lines"`
	OccurredAt time.Time   `json:"occurredAt"`
}

type orderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

func (p *Publisher) OrderPlaced(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, typeOrderPlaced, o)
}

func (p *Publisher) OrderCancelled(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, typeOrderCancelled, o)
}

func (p *Publisher) publish(ctx context.Context, eventType string, o *domain.Order) error {
	if !p.Enabled() {
		return nil
	}

	event := orderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice.String(),
		Status:     string(o.Status),
		OccurredAt: time.Now().UTC(),
	}
	for _, l := range o.Lines {
		event.Lines = append(event.Lines, orderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price.String(),
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
