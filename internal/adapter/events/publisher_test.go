package events

import (
	"context"
	"testing"

	"github.com/agrimart/agrimart/internal/core/domain"
)

func TestPublisher_DisabledWithoutBrokers(t *testing.T) {
	for _, brokers := range []string{"", " ", ",", " , "} {
		p := NewPublisher(brokers, "agrimart.orders")
		if p.Enabled() {
			t.Errorf("publisher enabled for brokers %q", brokers)
		}
		if err := p.OrderPlaced(context.Background(), &domain.Order{ID: "o1"}); err != nil {
			t.Errorf("disabled publish returned error: %v", err)
		}
		if err := p.OrderCancelled(context.Background(), &domain.Order{ID: "o1"}); err != nil {
			t.Errorf("disabled publish returned error: %v", err)
		}
		if err := p.Close(); err != nil {
			t.Errorf("close returned error: %v", err)
		}
	}
}

func TestPublisher_BrokerParsing(t *testing.T) {
	p := NewPublisher(" kafka-1:9092 , kafka-2:9092 ", "agrimart.orders")
	defer p.Close()

	if !p.Enabled() {
		t.Fatal("expected publisher to be enabled")
	}
}
