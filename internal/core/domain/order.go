package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// rank orders the forward chain; cancelled and delivered are terminal.
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	}
	return -1
}

// CanTransitionTo reports whether next is a valid move from s. Forward
// moves may skip steps; only pending/processing/shipped orders can be
// cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderStatusCancelled || s == OrderStatusDelivered {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return next.rank() > s.rank()
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}

// OrderLine is one product+quantity entry within an order. Price is the
// unit price captured at order time; it never changes afterwards, even
// if the catalog price does. ProductName/ProductImage are resolved from
// the live catalog when an order is read back, never stored.
type OrderLine struct {
	ProductID    string          `json:"product"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"productName,omitempty"`
	ProductImage string          `json:"productImage,omitempty"`
}

type ShippingAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user"`
	Lines             []OrderLine     `json:"products"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	Status            OrderStatus     `json:"status"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	PaymentMethod     string          `json:"paymentMethod"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ComputeTotal recomputes the order total from its lines.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
