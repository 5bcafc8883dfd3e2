package driver

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines driver persistence operations
type Repository interface {
	Create(ctx context.Context, d *Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*Driver, error)

	// GetByPhone returns (nil, nil) when no driver has the given phone.
	// Used for duplicate checking during registration.
	GetByPhone(ctx context.Context, phone string) (*Driver, error)
	List(ctx context.Context, limit, offset int) ([]*Driver, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// AdjustCashOnHand applies a signed delta to the stored cash-on-hand as a
	// single atomic increment, avoiding lost updates under concurrency.
	AdjustCashOnHand(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	WithTx(tx pgx.Tx) Repository
}

// ErrDriverNotFound indicates missing driver
type ErrDriverNotFound struct {
	DriverID uuid.UUID
}

func (e ErrDriverNotFound) Error() string {
	return "driver not found: " + e.DriverID.String()
}

// Is implements the errors.Is interface for ErrDriverNotFound
func (e ErrDriverNotFound) Is(target error) bool {
	t, ok := target.(ErrDriverNotFound)
	if !ok {
		return false
	}
	// If the target DriverID is empty, consider it a match for any ErrDriverNotFound
	if t.DriverID == uuid.Nil {
		return true
	}
	return e.DriverID == t.DriverID
}

// ErrDuplicatePhone indicates phone uniqueness violation
type ErrDuplicatePhone struct {
	Phone string
}

func (e ErrDuplicatePhone) Error() string {
	return "driver with phone already exists: " + e.Phone
}
