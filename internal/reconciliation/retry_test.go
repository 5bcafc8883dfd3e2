package reconciliation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/domain/shared"
)

// partialRecord builds a record whose live call succeeded except for the
// steps overridden by the caller.
func partialRecord(driverID string, overrides map[string]shared.StepStatus) *remittance.Record {
	rec := remittance.NewRecord("dt-1", driverID, shared.RoleDriver, 120, "", "", "corr-1")
	rec.SignatureURL = "https://cdn.example.com/sig.png"
	rec.SignaturePath = "drivers/" + driverID + "/remittances/dt-1/signature-1.png"

	steps := []string{
		remittance.StepUploadSignature,
		remittance.StepResolveCounterpart,
		remittance.StepUpdateDriverTransaction,
		remittance.StepUpdateVendorTransaction,
		remittance.StepBackfillLink,
		remittance.StepDecrementCash,
	}
	for _, name := range steps {
		status := shared.StepStatusOK
		if s, ok := overrides[name]; ok {
			status = s
		}
		var stepErr error
		if status == shared.StepStatusFailed {
			stepErr = errors.New("transient failure")
		}
		rec.RecordStep(name, status, stepErr)
	}
	rec.Finalize()
	return rec
}

func TestRemitter_Retry_RedrivesOnlyFailedSteps(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	rec := partialRecord(driverID, map[string]shared.StepStatus{
		remittance.StepUpdateVendorTransaction: shared.StepStatusFailed,
		remittance.StepBackfillLink:            shared.StepStatusSkipped,
	})
	rec.VendorTransactionID = "vt-1"
	rec.CounterpartExplicit = true

	f.vendorTxns.On("ApplyRemittance", mock.Anything, "vt-1", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.Status == shared.TransactionStatusRemitted &&
			u.CounterpartID == "dt-1" &&
			u.SignatureURL == "https://cdn.example.com/sig.png"
	})).Return(nil)
	f.records.On("Update", mock.Anything, rec).Return(nil)

	err := f.remitter.Retry(context.Background(), rec)

	assert.NoError(t, err)
	assert.Equal(t, shared.RemittanceStatusCompleted, rec.Status)

	// Steps that already succeeded must not run again
	f.driverTxns.AssertNotCalled(t, "ApplyRemittance")
	f.driverTxns.AssertNotCalled(t, "BackfillCounterpart")
	f.drivers.AssertNotCalled(t, "AdjustCashOnHand")
	f.vendorTxns.AssertNotCalled(t, "FindByDriverTransactionID")
	f.assertExpectations(t)
}

func TestRemitter_Retry_ResolvesCounterpartLate(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	rec := partialRecord(driverID, map[string]shared.StepStatus{
		remittance.StepResolveCounterpart:      shared.StepStatusFailed,
		remittance.StepUpdateVendorTransaction: shared.StepStatusSkipped,
		remittance.StepBackfillLink:            shared.StepStatusSkipped,
	})
	rec.OrderID = "order-2"

	f.vendorTxns.On("FindByDriverTransactionID", mock.Anything, "dt-1").Return(nil, nil)
	f.vendorTxns.On("FindByOrderID", mock.Anything, "order-2").Return(&ledger.VendorTransaction{ID: "vt-9"}, nil)
	f.vendorTxns.On("ApplyRemittance", mock.Anything, "vt-9", mock.MatchedBy(func(u ledger.RemittanceUpdate) bool {
		return u.CounterpartID == "dt-1"
	})).Return(nil)
	f.driverTxns.On("BackfillCounterpart", mock.Anything, "dt-1", "vt-9").Return(nil)
	f.records.On("Update", mock.Anything, rec).Return(nil)

	err := f.remitter.Retry(context.Background(), rec)

	assert.NoError(t, err)
	assert.Equal(t, shared.RemittanceStatusCompleted, rec.Status)
	assert.Equal(t, "vt-9", rec.VendorTransactionID)

	// The driver-side update already landed on the live call
	f.driverTxns.AssertNotCalled(t, "ApplyRemittance")
	f.assertExpectations(t)
}

func TestRemitter_Retry_RedrivesCashDecrement(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	rec := partialRecord(driverID, map[string]shared.StepStatus{
		remittance.StepDecrementCash: shared.StepStatusFailed,
	})

	f.drivers.On("AdjustCashOnHand", mock.Anything, uuid.MustParse(driverID), mock.Anything).Return(nil)
	f.records.On("Update", mock.Anything, rec).Return(nil)

	err := f.remitter.Retry(context.Background(), rec)

	assert.NoError(t, err)
	assert.Equal(t, shared.RemittanceStatusCompleted, rec.Status)
	f.assertExpectations(t)
}

func TestRemitter_Retry_StillFailingStaysPartial(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	rec := partialRecord(driverID, map[string]shared.StepStatus{
		remittance.StepDecrementCash: shared.StepStatusFailed,
	})

	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("still down"))
	f.records.On("Update", mock.Anything, rec).Return(nil)

	err := f.remitter.Retry(context.Background(), rec)

	assert.NoError(t, err)
	assert.Equal(t, shared.RemittanceStatusPartial, rec.Status)
	f.assertExpectations(t)
}

func TestRemitter_Retry_RecordUpdateFailureSurfaces(t *testing.T) {
	f := newRemitterFixture()
	driverID := uuid.NewString()

	rec := partialRecord(driverID, map[string]shared.StepStatus{
		remittance.StepDecrementCash: shared.StepStatusFailed,
	})

	f.drivers.On("AdjustCashOnHand", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.records.On("Update", mock.Anything, rec).Return(errors.New("update failed"))

	err := f.remitter.Retry(context.Background(), rec)

	assert.Error(t, err)
	f.assertExpectations(t)
}
