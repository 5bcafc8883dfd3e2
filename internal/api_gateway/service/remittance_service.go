package service

import (
	"context"

	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/reconciliation"
)

// RemittanceServiceImpl implements the RemittanceService interface
type RemittanceServiceImpl struct {
	remitter CashRemitter
	records  remittance.Repository
}

// NewRemittanceService creates a new remittance service
func NewRemittanceService(remitter CashRemitter, records remittance.Repository) RemittanceService {
	return &RemittanceServiceImpl{
		remitter: remitter,
		records:  records,
	}
}

// Remit runs the reconciliation sequence for one cash hand-over
func (s *RemittanceServiceImpl) Remit(ctx context.Context, cmd reconciliation.RemitCommand) (*reconciliation.Receipt, error) {
	return s.remitter.Remit(ctx, cmd)
}

// GetRecordForTransaction retrieves the latest per-step outcome record for a
// driver transaction, returns ErrNoRecordForTransaction if none exists
func (s *RemittanceServiceImpl) GetRecordForTransaction(ctx context.Context, driverTransactionID string) (*remittance.Record, error) {
	return s.records.GetLatestByDriverTransactionID(ctx, driverTransactionID)
}
