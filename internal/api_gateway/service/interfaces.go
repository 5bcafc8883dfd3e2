package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/domain/vendor"
	"github.com/courierhub-platform/internal/domain/wallet"
	"github.com/courierhub-platform/internal/reconciliation"
)

// TxRunner runs a function inside one database transaction. Satisfied by
// persistence.PostgresDB; declared here so services can be tested without a
// live pool.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// DriverService defines the interface for driver operations
type DriverService interface {
	// RegisterDriver creates a new active driver with zero cash on hand
	// Returns ErrDuplicatePhone if a driver with the same phone exists
	RegisterDriver(ctx context.Context, name, phone string) (*driver.Driver, error)

	// GetDriverByID retrieves a driver by its ID
	// Returns ErrDriverNotFound if the driver doesn't exist
	GetDriverByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error)

	// ListDrivers retrieves a paginated list of drivers with the total count
	ListDrivers(ctx context.Context, page, perPage int) ([]*driver.Driver, int64, error)
}

// VendorService defines the interface for vendor operations
type VendorService interface {
	// RegisterVendor creates a new vendor awaiting admin approval
	// Returns ErrDuplicateEmail if a vendor with the same contact email exists
	RegisterVendor(ctx context.Context, name, contactEmail string, commissionRate decimal.Decimal) (*vendor.Vendor, error)

	// GetVendorByID retrieves a vendor by its ID
	// Returns ErrVendorNotFound if the vendor doesn't exist
	GetVendorByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error)

	// ListVendors retrieves a paginated list of vendors with the total count
	ListVendors(ctx context.Context, page, perPage int) ([]*vendor.Vendor, int64, error)

	// DecideApproval applies an admin approve/reject decision to a pending
	// vendor. Returns ErrNotPending if the decision was already made.
	DecideApproval(ctx context.Context, id uuid.UUID, approve bool, reason string) (*vendor.Vendor, error)
}

// WalletService defines the interface for wallet operations
type WalletService interface {
	// CreateWallet creates an empty wallet for a platform user
	// Returns ErrDuplicateWallet if the user already has one
	CreateWallet(ctx context.Context, userID, currency string) (*wallet.Wallet, error)

	// GetWalletByID retrieves a wallet by its ID
	// Returns ErrWalletNotFound if the wallet doesn't exist
	GetWalletByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)

	// Adjust applies a signed balance delta and appends the audit record in
	// the same database transaction, so no delta can apply unaudited
	Adjust(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, reason, actorID string) (*wallet.Adjustment, error)

	// ListAdjustments retrieves the paginated audit trail for a wallet
	ListAdjustments(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*wallet.Adjustment, int64, error)
}

// OrderService defines the interface for order operations
type OrderService interface {
	// CreateOrder writes a pending cash-on-delivery order for an approved vendor
	CreateOrder(ctx context.Context, vendorID uuid.UUID, customerName, customerAddress string, codAmount float64, correlationID string) (*order.Order, error)

	// GetOrderByID retrieves an order by its ID
	// Returns ErrOrderNotFound if the order doesn't exist
	GetOrderByID(ctx context.Context, id string) (*order.Order, error)

	// AssignOrder publishes an ASSIGNED lifecycle event for asynchronous
	// processing and returns the published event
	AssignOrder(ctx context.Context, orderID string, driverID uuid.UUID, correlationID string) (*shared.OrderEvent, error)

	// ConfirmDelivery publishes a DELIVERED lifecycle event for asynchronous
	// processing and returns the published event
	ConfirmDelivery(ctx context.Context, orderID, driverID, correlationID string) (*shared.OrderEvent, error)

	// ListOrdersByVendor retrieves a paginated list of one vendor's orders
	ListOrdersByVendor(ctx context.Context, vendorID string, page, perPage int) ([]*order.Order, int64, error)
}

// CashRemitter executes remittance reconciliation calls. Satisfied by
// reconciliation.Remitter.
type CashRemitter interface {
	Remit(ctx context.Context, cmd reconciliation.RemitCommand) (*reconciliation.Receipt, error)
}

// RemittanceService defines the interface for remittance operations
type RemittanceService interface {
	// Remit runs the reconciliation sequence for one cash hand-over and
	// returns the signature receipt. Only validation and the signature upload
	// fail the call.
	Remit(ctx context.Context, cmd reconciliation.RemitCommand) (*reconciliation.Receipt, error)

	// GetRecordForTransaction retrieves the latest per-step outcome record
	// for a driver transaction. Returns ErrNoRecordForTransaction if the
	// transaction was never remitted.
	GetRecordForTransaction(ctx context.Context, driverTransactionID string) (*remittance.Record, error)
}

// TransactionService defines the interface for ledger transaction reads
type TransactionService interface {
	// GetDriverTransactionByID retrieves a driver-side ledger entry
	// Returns ErrTransactionNotFound if the entry doesn't exist
	GetDriverTransactionByID(ctx context.Context, id string) (*ledger.DriverTransaction, error)

	// GetCounterpart resolves the vendor-side entry paired with a driver
	// transaction, via the stored link or the driver-transaction index.
	// Returns nil if no counterpart exists.
	GetCounterpart(ctx context.Context, driverTransactionID string) (*ledger.VendorTransaction, error)

	// ListByDriverID retrieves paginated driver-side entries with the total count
	ListByDriverID(ctx context.Context, driverID string, page, perPage int) ([]*ledger.DriverTransaction, int64, error)

	// ListByVendorID retrieves paginated vendor-side entries with the total count
	ListByVendorID(ctx context.Context, vendorID string, page, perPage int) ([]*ledger.VendorTransaction, int64, error)
}
