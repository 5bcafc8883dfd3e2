package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/ledger"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	driverTxns ledger.DriverTransactionRepository
	vendorTxns ledger.VendorTransactionRepository
	logger     *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, driverTxns ledger.DriverTransactionRepository, vendorTxns ledger.VendorTransactionRepository) TransactionService {
	return &TransactionServiceImpl{
		driverTxns: driverTxns,
		vendorTxns: vendorTxns,
		logger:     logger,
	}
}

// GetDriverTransactionByID retrieves a driver-side ledger entry, returns
// ErrTransactionNotFound if not found
func (s *TransactionServiceImpl) GetDriverTransactionByID(ctx context.Context, id string) (*ledger.DriverTransaction, error) {
	return s.driverTxns.GetByID(ctx, id)
}

// GetCounterpart resolves the vendor-side entry paired with a driver
// transaction. It follows the stored link first and falls back to the
// driver-transaction index for entries remitted before the link was written.
// Returns nil when no counterpart exists.
func (s *TransactionServiceImpl) GetCounterpart(ctx context.Context, driverTransactionID string) (*ledger.VendorTransaction, error) {
	txn, err := s.driverTxns.GetByID(ctx, driverTransactionID)
	if err != nil {
		return nil, err
	}

	if txn.VendorTransactionID != "" {
		counterpart, err := s.vendorTxns.GetByID(ctx, txn.VendorTransactionID)
		if err != nil {
			var errNotFound ledger.ErrTransactionNotFound
			if errors.As(err, &errNotFound) {
				s.logger.Warn("Counterpart link points at a missing vendor transaction",
					"driver_transaction_id", driverTransactionID,
					"vendor_transaction_id", txn.VendorTransactionID,
				)
				return nil, nil
			}
			return nil, err
		}
		return counterpart, nil
	}

	return s.vendorTxns.FindByDriverTransactionID(ctx, driverTransactionID)
}

// ListByDriverID retrieves paginated driver-side entries together with the
// total count
func (s *TransactionServiceImpl) ListByDriverID(ctx context.Context, driverID string, page, perPage int) ([]*ledger.DriverTransaction, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.driverTxns.ListByDriverID(ctx, driverID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.driverTxns.CountByDriverID(ctx, driverID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// ListByVendorID retrieves paginated vendor-side entries together with the
// total count
func (s *TransactionServiceImpl) ListByVendorID(ctx context.Context, vendorID string, page, perPage int) ([]*ledger.VendorTransaction, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.vendorTxns.ListByVendorID(ctx, vendorID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.vendorTxns.CountByVendorID(ctx, vendorID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
