package ledger

import (
	"context"

	"github.com/courierhub-platform/internal/domain/shared"
)

// DriverTransactionRepository manages driver-side ledger entry persistence
type DriverTransactionRepository interface {
	Create(ctx context.Context, txn *DriverTransaction) error
	GetByID(ctx context.Context, id string) (*DriverTransaction, error)

	// GetByOrderID returns the entry for an order, or (nil, nil) when none exists.
	GetByOrderID(ctx context.Context, orderID string) (*DriverTransaction, error)
	ListByDriverID(ctx context.Context, driverID string, limit, offset int) ([]*DriverTransaction, error)
	CountByDriverID(ctx context.Context, driverID string) (int64, error)

	// ApplyRemittance stamps status, timestamp, signature references, and the
	// counterpart link onto the entry.
	ApplyRemittance(ctx context.Context, id string, update RemittanceUpdate) error

	// BackfillCounterpart sets only the vendor transaction link, used when the
	// counterpart was discovered after the main update was already written.
	BackfillCounterpart(ctx context.Context, id, vendorTransactionID string) error
	Query(ctx context.Context, query TransactionQuery) ([]*DriverTransaction, error)
}

// VendorTransactionRepository manages vendor-side ledger entry persistence
type VendorTransactionRepository interface {
	Create(ctx context.Context, txn *VendorTransaction) error
	GetByID(ctx context.Context, id string) (*VendorTransaction, error)

	// FindByDriverTransactionID returns the first entry linked to the given
	// driver transaction, or (nil, nil) when none matches.
	FindByDriverTransactionID(ctx context.Context, driverTransactionID string) (*VendorTransaction, error)

	// FindByOrderID returns the first entry for the given order, or (nil, nil)
	// when none matches.
	FindByOrderID(ctx context.Context, orderID string) (*VendorTransaction, error)
	ListByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*VendorTransaction, error)
	CountByVendorID(ctx context.Context, vendorID string) (int64, error)
	ApplyRemittance(ctx context.Context, id string, update RemittanceUpdate) error
	Query(ctx context.Context, query TransactionQuery) ([]*VendorTransaction, error)
}

// ErrTransactionNotFound indicates a missing ledger transaction on either side
type ErrTransactionNotFound struct {
	TransactionID string
}

func (e ErrTransactionNotFound) Error() string {
	return "ledger transaction not found: " + e.TransactionID
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	// If the target TransactionID is empty, consider it a match for any ErrTransactionNotFound
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateTransaction indicates id uniqueness violation
type ErrDuplicateTransaction struct {
	TransactionID string
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate ledger transaction: " + e.TransactionID
}

// Is implements the errors.Is interface for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// TransactionQuery selects ledger transactions for reads and live
// subscriptions. Zero-valued fields are ignored.
type TransactionQuery struct {
	DriverID string
	VendorID string
	Status   shared.TransactionStatus
	Limit    int64
}

// Snapshot is one complete query result delivered to a subscriber.
type Snapshot struct {
	Taken              shared.Timestamp     `json:"taken"`
	DriverTransactions []*DriverTransaction `json:"driver_transactions"`
	VendorTransactions []*VendorTransaction `json:"vendor_transactions"`
}

// Watcher exposes live snapshot subscriptions over the transaction
// collections. Each relevant change triggers a re-query; subscribers always
// receive full snapshots, and the latest snapshot supersedes an undelivered
// previous one.
type Watcher interface {
	Subscribe(ctx context.Context, query TransactionQuery) (*Subscription, error)
}

// Subscription is a live feed of query snapshots. The channel closes after
// Cancel or when the watcher shuts down.
type Subscription struct {
	C      <-chan Snapshot
	cancel func()
}

// NewSubscription wires a snapshot channel to its cancel hook
func NewSubscription(c <-chan Snapshot, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Cancel stops delivery and releases the underlying change stream
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}
