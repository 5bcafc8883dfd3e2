package reconciliation

import (
	"context"

	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/domain/shared"
)

// Retry re-drives the failed steps of a partially reconciled remittance
// record. The signature upload is never retried here: a record whose upload
// failed is terminal because the image bytes are gone. Steps that already
// succeeded are left alone, so a retry converges the pair instead of
// re-running the whole sequence.
func (r *Remitter) Retry(ctx context.Context, rec *remittance.Record) error {
	log := r.logger.With(
		"correlation_id", rec.CorrelationID,
		"driver_transaction_id", rec.DriverTransactionID,
		"remittance_record_id", rec.ID,
		"attempt", rec.Attempts,
	)

	vendorTxnID := rec.VendorTransactionID
	resolvedNow := false
	if stepEnded(rec, remittance.StepResolveCounterpart, shared.StepStatusFailed) {
		cmd := RemitCommand{DriverTransactionID: rec.DriverTransactionID, OrderID: rec.OrderID}
		vendorTxnID, resolvedNow = r.resolveCounterpart(ctx, log, cmd, rec)
	}

	update := ledger.RemittanceUpdate{
		Status:        statusFor(rec.Actor),
		RemittedAt:    shared.NewTimestamp(rec.CreatedAt),
		SignatureURL:  rec.SignatureURL,
		SignaturePath: rec.SignaturePath,
		CounterpartID: vendorTxnID,
	}

	if stepEnded(rec, remittance.StepUpdateDriverTransaction, shared.StepStatusFailed) {
		r.updateDriverSide(ctx, log, rec.DriverTransactionID, update, rec)
	}

	// A counterpart resolved only now revives the vendor-side steps that were
	// skipped for lack of an id on the original call.
	if stepEnded(rec, remittance.StepUpdateVendorTransaction, shared.StepStatusFailed) ||
		(resolvedNow && stepEnded(rec, remittance.StepUpdateVendorTransaction, shared.StepStatusSkipped)) {
		r.updateVendorSide(ctx, log, rec.DriverTransactionID, vendorTxnID, update, rec)
	}
	if stepEnded(rec, remittance.StepBackfillLink, shared.StepStatusFailed) || resolvedNow {
		r.backfillLink(ctx, log, rec.DriverTransactionID, vendorTxnID, !rec.CounterpartExplicit, rec)
	}
	if stepEnded(rec, remittance.StepDecrementCash, shared.StepStatusFailed) {
		r.decrementCash(ctx, log, rec.DriverID, rec.Actor, rec.NetAmount, rec)
	}

	rec.Finalize()
	if err := r.records.Update(ctx, rec); err != nil {
		log.Error("Failed to update remittance record after retry", "error", err)
		return err
	}
	return nil
}

func stepEnded(rec *remittance.Record, name string, status shared.StepStatus) bool {
	outcome, ok := rec.StepOutcome(name)
	return ok && outcome.Status == status
}
