package remittance

import (
	"context"
	"strconv"
)

// Repository manages remittance record persistence
type Repository interface {
	// Create inserts a new record and sets rec.ID from the generated key.
	Create(ctx context.Context, rec *Record) error

	// Update persists status, steps, resolved links, and attempt counters.
	Update(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)

	// GetLatestByDriverTransactionID returns the most recent record for a
	// driver transaction, the observable outcome of its last remittance call.
	GetLatestByDriverTransactionID(ctx context.Context, driverTransactionID string) (*Record, error)

	// GetRetryable returns partial records oldest-first for the retry poller.
	GetRetryable(ctx context.Context, limit int) ([]*Record, error)
}

// ErrRecordNotFound indicates missing remittance record
type ErrRecordNotFound struct {
	ID int64
}

func (e ErrRecordNotFound) Error() string {
	return "remittance record not found: " + strconv.FormatInt(e.ID, 10)
}

// ErrNoRecordForTransaction indicates a driver transaction with no remittance
// record, i.e. one that was never remitted
type ErrNoRecordForTransaction struct {
	DriverTransactionID string
}

func (e ErrNoRecordForTransaction) Error() string {
	return "no remittance record for driver transaction: " + e.DriverTransactionID
}

// Is implements the errors.Is interface for ErrNoRecordForTransaction
func (e ErrNoRecordForTransaction) Is(target error) bool {
	t, ok := target.(ErrNoRecordForTransaction)
	if !ok {
		return false
	}
	// If the target id is empty, consider it a match for any ErrNoRecordForTransaction
	if t.DriverTransactionID == "" {
		return true
	}
	return e.DriverTransactionID == t.DriverTransactionID
}
