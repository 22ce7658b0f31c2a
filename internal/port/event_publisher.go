package port

import (
	"context"

	"github.com/agrimart/agrimart/internal/core/domain"
)

// EventPublisher emits order lifecycle events. Publishing is
// best-effort: a failure is logged by the caller, never surfaced to the
// client.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *domain.Order) error
	OrderCancelled(ctx context.Context, o *domain.Order) error
}
