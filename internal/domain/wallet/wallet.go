package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyUserID           = errors.New("wallet user id cannot be empty")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
	ErrZeroAdjustment        = errors.New("adjustment amount must be non-zero")
	ErrEmptyReason           = errors.New("adjustment reason cannot be empty")
	ErrEmptyActor            = errors.New("adjustment actor cannot be empty")
)

// Wallet represents a stored-value balance for one platform user
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewWallet creates an empty wallet for the given platform user
func NewWallet(userID, currency string) (*Wallet, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if len(currency) != 3 { // Basic validation for currency code length
		return nil, ErrInvalidCurrencyFormat
	}

	return &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  currency,
		Balance:   decimal.Zero,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// Adjustment is the immutable audit record appended for every balance change.
// The balance increment and the audit append share one database transaction;
// an adjustment row therefore always corresponds to an applied delta.
type Adjustment struct {
	ID        int64           `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	ActorID   string          `json:"actor_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAdjustment validates and builds an audit record for a balance change
func NewAdjustment(walletID uuid.UUID, amount decimal.Decimal, reason, actorID string) (*Adjustment, error) {
	if amount.IsZero() {
		return nil, ErrZeroAdjustment
	}
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if actorID == "" {
		return nil, ErrEmptyActor
	}

	return &Adjustment{
		WalletID:  walletID,
		Amount:    amount,
		Reason:    reason,
		ActorID:   actorID,
		CreatedAt: time.Now(),
	}, nil
}
