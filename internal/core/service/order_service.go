package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/port"
	"github.com/agrimart/agrimart/pkg/metrics"
)

// CartLine is one requested entry of a submitted cart. Carts are
// client-held transient state; the whole cart arrives as a value with
// the place-order call.
type CartLine struct {
	ProductID string
	Quantity  int
}

// StatusChange is a requested order status transition. Tracking fields
// are optional and only ever set by admins moving an order forward.
type StatusChange struct {
	Status            domain.OrderStatus
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// OrderService owns the order placement transaction and the
// cancellation/stock-restoration rule.
type OrderService struct {
	catalog port.CatalogRepository
	orders  port.OrderRepository
	cache   port.CacheRepository
	events  port.EventPublisher
	authz   Authorizer
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewOrderService wires the order transaction service. cache, events and
// m may be nil; idempotency checks, event publishing and metrics are
// then skipped.
func NewOrderService(
	catalog port.CatalogRepository,
	orders port.OrderRepository,
	cache port.CacheRepository,
	events port.EventPublisher,
	authz Authorizer,
	m *metrics.Metrics,
	log *slog.Logger,
) *OrderService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &OrderService{
		catalog: catalog,
		orders:  orders,
		cache:   cache,
		events:  events,
		authz:   authz,
		metrics: m,
		log:     log,
	}
}

// PlaceOrder validates the cart, reserves stock line by line, snapshots
// unit prices and persists the order with status pending.
//
// Reservation policy: reserve eagerly, compensate on failure. If any
// later line fails (missing product, insufficient stock) or the order
// write itself fails, every reservation already taken by this request
// is released before returning, so stock is never left decremented for
// an order that does not exist.
func (s *OrderService) PlaceOrder(
	ctx context.Context,
	userID string,
	lines []CartLine,
	address domain.ShippingAddress,
	paymentMethod string,
	requestID string,
) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if paymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method required", domain.ErrInvalidInput)
	}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			return nil, fmt.Errorf("%w: each line needs a product and a quantity of at least 1", domain.ErrInvalidInput)
		}
	}

	if s.cache != nil && requestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, fmt.Sprintf("order:%s:%s", userID, requestID))
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	reserved := make([]domain.OrderLine, 0, len(lines))
	release := func() {
		for _, l := range reserved {
			if _, err := s.catalog.ReleaseStock(ctx, l.ProductID, l.Quantity); err != nil {
				s.log.Error("failed to release stock after aborted order",
					"product_id", l.ProductID, "quantity", l.Quantity, "error", err)
			}
		}
	}

	total := decimal.Zero
	for _, l := range lines {
		p, err := s.catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			release()
			return nil, fmt.Errorf("lookup product %s: %w", l.ProductID, err)
		}
		if p == nil {
			release()
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, l.ProductID)
		}

		ok, err := s.catalog.ReserveStock(ctx, p.ID, l.Quantity)
		if err != nil {
			release()
			return nil, fmt.Errorf("reserve stock for %s: %w", p.ID, err)
		}
		if !ok {
			release()
			s.metrics.StockConflict()
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrInsufficientStock, p.Name, p.ID)
		}

		reserved = append(reserved, domain.OrderLine{
			ProductID: p.ID,
			Quantity:  l.Quantity,
			Price:     p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Lines:           reserved,
		TotalPrice:      total,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   paymentMethod,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The persisted total must equal the sum of the snapshot lines.
	if !order.TotalPrice.Equal(order.ComputeTotal()) {
		release()
		return nil, fmt.Errorf("order total %s does not match line sum %s",
			order.TotalPrice, order.ComputeTotal())
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		release()
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.metrics.OrderPlaced()
	s.log.Info("order placed", "order_id", order.ID, "user_id", userID,
		"lines", len(order.Lines), "total", order.TotalPrice.String())

	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil {
			s.log.Warn("failed to publish order placed event", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}

// UpdateStatus applies a status transition. Cancelling an order restores
// every line's stock; restoration is best-effort per line, so a product
// deleted since the order was placed does not block the cancellation.
// Cancelling an already-cancelled order is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, change StatusChange, caller Identity) (*domain.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lookup order %s: %w", orderID, err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !s.authz.CanSetStatus(caller, o, change.Status) {
		return nil, domain.ErrUnauthorized
	}

	if change.Status == domain.OrderStatusCancelled && o.Status == domain.OrderStatusCancelled {
		return o, nil
	}
	if !o.Status.CanTransitionTo(change.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, change.Status)
	}

	cancelling := change.Status == domain.OrderStatusCancelled
	if cancelling {
		for _, l := range o.Lines {
			ok, err := s.catalog.ReleaseStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				s.log.Error("failed to restore stock on cancel",
					"order_id", o.ID, "product_id", l.ProductID, "error", err)
				continue
			}
			if !ok {
				s.log.Warn("skipping restock for missing product",
					"order_id", o.ID, "product_id", l.ProductID)
			}
		}
	}

	o.Status = change.Status
	if change.TrackingNumber != "" {
		o.TrackingNumber = change.TrackingNumber
	}
	if change.EstimatedDelivery != nil {
		o.EstimatedDelivery = change.EstimatedDelivery
	}
	o.UpdatedAt = time.Now().UTC()

	if err := s.orders.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("persist status update: %w", err)
	}

	if cancelling {
		s.metrics.OrderCancelled()
		s.log.Info("order cancelled", "order_id", o.ID)
		if s.events != nil {
			if err := s.events.OrderCancelled(ctx, o); err != nil {
				s.log.Warn("failed to publish order cancelled event", "order_id", o.ID, "error", err)
			}
		}
	}
	return o, nil
}

// UpdatePaymentStatus moves the payment lifecycle, which is independent
// of the order status. Admin only.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, caller Identity) (*domain.Order, error) {
	if !s.authz.CanAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lookup order %s: %w", orderID, err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}

	o.PaymentStatus = status
	o.UpdatedAt = time.Now().UTC()
	if err := s.orders.UpdateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("persist payment update: %w", err)
	}
	return o, nil
}

// GetOrder fetches one order for its owner or an admin, with product
// names and images resolved from the live catalog for display. The
// snapshot prices on the lines are returned untouched.
func (s *OrderService) GetOrder(ctx context.Context, id string, caller Identity) (*domain.Order, error) {
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup order %s: %w", id, err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !s.authz.CanAccessOrder(caller, o) {
		return nil, domain.ErrUnauthorized
	}

	s.resolveProducts(ctx, o)
	return o, nil
}

// ListOrdersForUser returns userID's orders, newest first. Callers can
// list their own orders; admins can list anyone's.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string, caller Identity) ([]domain.Order, error) {
	if caller.UserID != userID && !s.authz.CanAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %s: %w", userID, err)
	}
	for i := range orders {
		s.resolveProducts(ctx, &orders[i])
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first. Admin only.
func (s *OrderService) ListAllOrders(ctx context.Context, caller Identity) ([]domain.Order, error) {
	if !s.authz.CanAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder hard-deletes an order record. Administrative operation
// with no stock side effect; cancellation is the path that restocks.
func (s *OrderService) DeleteOrder(ctx context.Context, id string, caller Identity) error {
	if !s.authz.CanAdmin(caller) {
		return domain.ErrUnauthorized
	}
	ok, err := s.orders.DeleteOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if !ok {
		return domain.ErrOrderNotFound
	}
	return nil
}

// resolveProducts denormalizes line display fields from the catalog.
// A product deleted since the order was placed just leaves them empty;
// the historical snapshot survives on its own.
func (s *OrderService) resolveProducts(ctx context.Context, o *domain.Order) {
	for i := range o.Lines {
		p, err := s.catalog.GetProduct(ctx, o.Lines[i].ProductID)
		if err != nil || p == nil {
			continue
		}
		o.Lines[i].ProductName = p.Name
		o.Lines[i].ProductImage = p.Image
	}
}
