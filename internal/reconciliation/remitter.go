package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/platform/storage"
)

const signatureContentType = "image/png"

// RemitCommand carries one cash remittance call: a driver (or a vendor
// confirming on the driver's behalf) hands over collected cash together with
// a signed proof-of-remittance image.
type RemitCommand struct {
	DriverID            string
	DriverTransactionID string
	NetAmount           float64
	Signature           []byte
	Actor               shared.Actor
	VendorTransactionID string
	VendorID            string
	OrderID             string
	CorrelationID       string
}

// Receipt is the caller-facing result of a remittance call. It is returned
// as soon as the signature artifact is stored, regardless of how the
// downstream ledger updates fared.
type Receipt struct {
	SignatureURL  string `json:"signature_url"`
	SignaturePath string `json:"signature_path"`
}

// Remitter reconciles a driver/vendor transaction pair when collected cash is
// remitted. The routine spans two document-store writes, an object-store
// upload, and a relational balance update with no transaction guarantee
// across them; it therefore runs as an explicit sequence of named steps whose
// outcomes are persisted on a remittance record. Only validation and the
// signature upload abort the call; every later step failure is logged,
// recorded, and left for the retry poller.
type Remitter struct {
	logger     *slog.Logger
	store      storage.ObjectStorage
	driverTxns ledger.DriverTransactionRepository
	vendorTxns ledger.VendorTransactionRepository
	drivers    driver.Repository
	records    remittance.Repository
}

// NewRemitter creates a Remitter with its collaborating stores
func NewRemitter(
	logger *slog.Logger,
	store storage.ObjectStorage,
	driverTxns ledger.DriverTransactionRepository,
	vendorTxns ledger.VendorTransactionRepository,
	drivers driver.Repository,
	records remittance.Repository,
) *Remitter {
	return &Remitter{
		logger:     logger,
		store:      store,
		driverTxns: driverTxns,
		vendorTxns: vendorTxns,
		drivers:    drivers,
		records:    records,
	}
}

// Remit executes the reconciliation sequence for one remittance call:
// upload the signature, resolve the counterpart vendor transaction, stamp
// both sides of the pair, backfill the missing link, and decrement the
// driver's cash on hand. The receipt is returned once the upload succeeds;
// failures after that point never surface to the caller.
func (r *Remitter) Remit(ctx context.Context, cmd RemitCommand) (*Receipt, error) {
	log := r.logger.With(
		"correlation_id", cmd.CorrelationID,
		"driver_transaction_id", cmd.DriverTransactionID,
		"actor", string(cmd.Actor.Role),
	)

	if err := validateCommand(cmd); err != nil {
		log.Warn("Rejected remittance call", "error", err)
		return nil, err
	}

	netAmount := cmd.NetAmount
	if math.IsNaN(netAmount) || math.IsInf(netAmount, 0) {
		log.Warn("Coercing non-finite net amount to zero", "net_amount", fmt.Sprintf("%v", cmd.NetAmount))
		netAmount = 0
	}

	rec := remittance.NewRecord(
		cmd.DriverTransactionID, cmd.DriverID, cmd.Actor.Role, netAmount,
		cmd.VendorTransactionID, cmd.OrderID, cmd.CorrelationID,
	)

	receipt, err := r.uploadSignature(ctx, log, cmd, rec)
	if err != nil {
		// The signature artifact is the one thing the call must not lose;
		// without it nothing is written to the ledger.
		rec.Finalize()
		r.persistRecord(ctx, log, rec)
		return nil, err
	}

	vendorTxnID, viaFallback := r.resolveCounterpart(ctx, log, cmd, rec)

	update := ledger.RemittanceUpdate{
		Status:        statusFor(cmd.Actor.Role),
		RemittedAt:    shared.TimestampNow(),
		SignatureURL:  receipt.SignatureURL,
		SignaturePath: receipt.SignaturePath,
		CounterpartID: vendorTxnID,
	}

	r.updateDriverSide(ctx, log, cmd.DriverTransactionID, update, rec)
	r.updateVendorSide(ctx, log, cmd.DriverTransactionID, vendorTxnID, update, rec)
	r.backfillLink(ctx, log, cmd.DriverTransactionID, vendorTxnID, viaFallback, rec)
	r.decrementCash(ctx, log, cmd.DriverID, cmd.Actor.Role, netAmount, rec)

	rec.Finalize()
	r.persistRecord(ctx, log, rec)

	return receipt, nil
}

func validateCommand(cmd RemitCommand) error {
	if cmd.DriverID == "" {
		return ValidationError{Reason: "driver id required"}
	}
	if cmd.DriverTransactionID == "" {
		return ValidationError{Reason: "transaction id required"}
	}
	if cmd.Actor.Role == shared.RoleVendor && cmd.VendorID == "" {
		return ValidationError{Reason: "vendor id required"}
	}
	return nil
}

// statusFor maps the remitting actor to the terminal status both sides of
// the pair converge on: drivers remit, vendors confirm reconciliation.
func statusFor(role shared.Role) shared.TransactionStatus {
	if role == shared.RoleVendor {
		return shared.TransactionStatusReconciled
	}
	return shared.TransactionStatusRemitted
}

// SignatureKey builds the object-store key for a remittance signature. The
// epoch-millisecond suffix keeps repeated calls from overwriting earlier
// proofs.
func SignatureKey(driverID, driverTransactionID string, role shared.Role, now time.Time) string {
	prefix := "signature"
	if role == shared.RoleVendor {
		prefix = "vendor-signature"
	}
	return fmt.Sprintf("drivers/%s/remittances/%s/%s-%d.png", driverID, driverTransactionID, prefix, now.UnixMilli())
}

func (r *Remitter) uploadSignature(ctx context.Context, log *slog.Logger, cmd RemitCommand, rec *remittance.Record) (*Receipt, error) {
	key := SignatureKey(cmd.DriverID, cmd.DriverTransactionID, cmd.Actor.Role, time.Now())

	if err := r.store.Upload(ctx, key, cmd.Signature, signatureContentType); err != nil {
		uploadErr := UploadError{Key: key, Err: err}
		log.Error("Failed to upload remittance signature", "error", err, "key", key)
		rec.RecordStep(remittance.StepUploadSignature, shared.StepStatusFailed, uploadErr)
		return nil, uploadErr
	}

	url, err := r.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		// An unreachable artifact is as useless as an unstored one, so URL
		// resolution failures abort the call the same way.
		uploadErr := UploadError{Key: key, Err: err}
		log.Error("Failed to resolve signature download URL", "error", err, "key", key)
		rec.RecordStep(remittance.StepUploadSignature, shared.StepStatusFailed, uploadErr)
		return nil, uploadErr
	}

	rec.RecordStep(remittance.StepUploadSignature, shared.StepStatusOK, nil)
	rec.SignatureURL = url
	rec.SignaturePath = key
	return &Receipt{SignatureURL: url, SignaturePath: key}, nil
}

// resolveCounterpart locates the vendor-side entry for the pair: the
// explicitly supplied id wins, then the stored driver-transaction link, then
// the order id. Lookup errors are treated as no-match so a flaky secondary
// index never blocks the remittance itself.
func (r *Remitter) resolveCounterpart(ctx context.Context, log *slog.Logger, cmd RemitCommand, rec *remittance.Record) (string, bool) {
	if cmd.VendorTransactionID != "" {
		rec.RecordStep(remittance.StepResolveCounterpart, shared.StepStatusOK, nil)
		return cmd.VendorTransactionID, false
	}

	var lookupErr error

	vendorTxn, err := r.vendorTxns.FindByDriverTransactionID(ctx, cmd.DriverTransactionID)
	if err != nil {
		log.Error("Failed to look up vendor transaction by driver transaction id", "error", err)
		lookupErr = err
	}
	if vendorTxn == nil && cmd.OrderID != "" {
		vendorTxn, err = r.vendorTxns.FindByOrderID(ctx, cmd.OrderID)
		if err != nil {
			log.Error("Failed to look up vendor transaction by order id", "error", err, "order_id", cmd.OrderID)
			lookupErr = err
		}
	}

	if vendorTxn == nil {
		if lookupErr != nil {
			rec.RecordStep(remittance.StepResolveCounterpart, shared.StepStatusFailed, lookupErr)
		} else {
			rec.RecordStep(remittance.StepResolveCounterpart, shared.StepStatusOK, nil)
		}
		return "", false
	}

	rec.RecordStep(remittance.StepResolveCounterpart, shared.StepStatusOK, nil)
	rec.VendorTransactionID = vendorTxn.ID
	return vendorTxn.ID, true
}

func (r *Remitter) updateDriverSide(ctx context.Context, log *slog.Logger, driverTxnID string, update ledger.RemittanceUpdate, rec *remittance.Record) {
	if err := r.driverTxns.ApplyRemittance(ctx, driverTxnID, update); err != nil {
		log.Error("Failed to update driver transaction", "error", err)
		rec.RecordStep(remittance.StepUpdateDriverTransaction, shared.StepStatusFailed, err)
		return
	}
	rec.RecordStep(remittance.StepUpdateDriverTransaction, shared.StepStatusOK, nil)
}

func (r *Remitter) updateVendorSide(ctx context.Context, log *slog.Logger, driverTxnID, vendorTxnID string, update ledger.RemittanceUpdate, rec *remittance.Record) {
	if vendorTxnID == "" {
		rec.RecordStep(remittance.StepUpdateVendorTransaction, shared.StepStatusSkipped, nil)
		return
	}

	mirrored := update
	mirrored.CounterpartID = driverTxnID
	if err := r.vendorTxns.ApplyRemittance(ctx, vendorTxnID, mirrored); err != nil {
		log.Error("Failed to update vendor transaction", "error", err, "vendor_transaction_id", vendorTxnID)
		rec.RecordStep(remittance.StepUpdateVendorTransaction, shared.StepStatusFailed, err)
		return
	}
	rec.RecordStep(remittance.StepUpdateVendorTransaction, shared.StepStatusOK, nil)
}

// backfillLink writes the vendor link onto the driver transaction a second
// time when the counterpart was only discovered by lookup. The main update
// already carried the id, but that write can have failed independently; the
// backfill gives the link its own outcome.
func (r *Remitter) backfillLink(ctx context.Context, log *slog.Logger, driverTxnID, vendorTxnID string, viaFallback bool, rec *remittance.Record) {
	if !viaFallback || vendorTxnID == "" {
		rec.RecordStep(remittance.StepBackfillLink, shared.StepStatusSkipped, nil)
		return
	}

	if err := r.driverTxns.BackfillCounterpart(ctx, driverTxnID, vendorTxnID); err != nil {
		log.Error("Failed to backfill vendor transaction link", "error", err, "vendor_transaction_id", vendorTxnID)
		rec.RecordStep(remittance.StepBackfillLink, shared.StepStatusFailed, err)
		return
	}
	rec.RecordStep(remittance.StepBackfillLink, shared.StepStatusOK, nil)
}

// decrementCash reduces the driver's cash on hand by the remitted amount.
// Only the driver actor moves cash: a vendor confirming reconciliation did
// not take money out of the driver's pocket. The magnitude is used so a
// negative net amount (a refund-heavy order) still decrements.
func (r *Remitter) decrementCash(ctx context.Context, log *slog.Logger, driverID string, role shared.Role, netAmount float64, rec *remittance.Record) {
	if role != shared.RoleDriver {
		rec.RecordStep(remittance.StepDecrementCash, shared.StepStatusSkipped, nil)
		return
	}

	id, err := uuid.Parse(driverID)
	if err != nil {
		log.Error("Failed to decrement cash on hand", "error", err, "driver_id", driverID)
		rec.RecordStep(remittance.StepDecrementCash, shared.StepStatusFailed, err)
		return
	}

	delta := decimal.NewFromFloat(math.Abs(netAmount)).Neg()
	if err := r.drivers.AdjustCashOnHand(ctx, id, delta); err != nil {
		log.Error("Failed to decrement cash on hand", "error", err, "driver_id", driverID)
		rec.RecordStep(remittance.StepDecrementCash, shared.StepStatusFailed, err)
		return
	}
	rec.RecordStep(remittance.StepDecrementCash, shared.StepStatusOK, nil)
}

// persistRecord writes the saga record. The record exists to make partial
// failure observable; losing it is logged but never changes the outcome of
// the call it describes.
func (r *Remitter) persistRecord(ctx context.Context, log *slog.Logger, rec *remittance.Record) {
	if err := r.records.Create(ctx, rec); err != nil {
		log.Error("Failed to persist remittance record", "error", err, "status", string(rec.Status))
	}
}
