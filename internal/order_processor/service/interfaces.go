package service

import (
	"context"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
)

// ProcessingService defines the interface for processing order lifecycle events.
type ProcessingService interface {
	ProcessOrderEvent(ctx context.Context, event *shared.OrderEvent) error
}

// DriverVerifier checks that a driver may take an assignment
type DriverVerifier interface {
	// VerifyEligible returns the driver when it exists and is active.
	// Returns driver.ErrDriverNotFound or driver.ErrNotActive otherwise.
	VerifyEligible(ctx context.Context, driverID string) (*driver.Driver, error)
}

// SettlementBuilder writes the cross-linked ledger transaction pair for a
// delivered order
type SettlementBuilder interface {
	// HasPair reports whether a settlement pair was already written for the
	// order. The driver side anchors the check because it is created first.
	HasPair(ctx context.Context, orderID string) (bool, error)

	// Settle builds and persists the driver and vendor ledger entries for a
	// delivered order, commission computed from the vendor's rate.
	Settle(ctx context.Context, o *order.Order, correlationID string) error
}

// FailureRecorder persists business failures on the order document so
// rejected lifecycle events stay visible to dashboards
type FailureRecorder interface {
	RecordFailure(ctx context.Context, orderID string, reason shared.FailureReason) error
}
