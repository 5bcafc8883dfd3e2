package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines wallet and adjustment persistence operations
type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// GetByUserID returns (nil, nil) when the user has no wallet yet.
	// Used both for lookups and for duplicate checking during creation.
	GetByUserID(ctx context.Context, userID string) (*Wallet, error)

	// AdjustBalance applies a signed delta to the stored balance as a single
	// atomic increment, avoiding lost updates under concurrent adjustments.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// AppendAdjustment inserts the audit record for one balance change.
	AppendAdjustment(ctx context.Context, adj *Adjustment) error
	ListAdjustments(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*Adjustment, error)
	CountAdjustments(ctx context.Context, walletID uuid.UUID) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrWalletNotFound indicates missing wallet
type ErrWalletNotFound struct {
	WalletID uuid.UUID
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found: " + e.WalletID.String()
}

// Is implements the errors.Is interface for ErrWalletNotFound
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	// If the target WalletID is empty, consider it a match for any ErrWalletNotFound
	if t.WalletID == uuid.Nil {
		return true
	}
	return e.WalletID == t.WalletID
}

// ErrDuplicateWallet indicates user/currency uniqueness violation
type ErrDuplicateWallet struct {
	UserID string
}

func (e ErrDuplicateWallet) Error() string {
	return "wallet already exists for user: " + e.UserID
}
