package order

import (
	"context"

	"github.com/courierhub-platform/internal/domain/shared"
)

// Repository manages order document persistence
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*Order, error)
	CountByVendorID(ctx context.Context, vendorID string) (int64, error)

	// MarkAssigned stamps the driver and assignment time onto a pending order.
	MarkAssigned(ctx context.Context, id, driverID string, at shared.Timestamp) error

	// MarkDelivered stamps the delivery time onto an assigned order.
	MarkDelivered(ctx context.Context, id string, at shared.Timestamp) error

	// RecordProcessingError attaches a business failure reason to the order so
	// rejected lifecycle events remain visible to dashboards.
	RecordProcessingError(ctx context.Context, id string, reason string) error
}

// ErrOrderNotFound indicates missing order
type ErrOrderNotFound struct {
	OrderID string
}

func (e ErrOrderNotFound) Error() string {
	return "order not found: " + e.OrderID
}

// Is implements the errors.Is interface for ErrOrderNotFound
func (e ErrOrderNotFound) Is(target error) bool {
	t, ok := target.(ErrOrderNotFound)
	if !ok {
		return false
	}
	// If the target OrderID is empty, consider it a match for any ErrOrderNotFound
	if t.OrderID == "" {
		return true
	}
	return e.OrderID == t.OrderID
}

// ErrDuplicateOrder indicates id uniqueness violation
type ErrDuplicateOrder struct {
	OrderID string
}

func (e ErrDuplicateOrder) Error() string {
	return "duplicate order: " + e.OrderID
}
