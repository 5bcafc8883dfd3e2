package remittance

import (
	"time"

	"github.com/courierhub-platform/internal/domain/shared"
)

// Reconciliation step names, in execution order. Upload failures abort the
// call; every later step is independently failable and retryable.
const (
	StepUploadSignature         = "upload_signature"
	StepResolveCounterpart      = "resolve_counterpart"
	StepUpdateDriverTransaction = "update_driver_transaction"
	StepUpdateVendorTransaction = "update_vendor_transaction"
	StepBackfillLink            = "backfill_link"
	StepDecrementCash           = "decrement_cash"
)

// StepResult records the outcome of one reconciliation step
type StepResult struct {
	Name   string            `json:"name"`
	Status shared.StepStatus `json:"status"`
	Error  string            `json:"error,omitempty"`
	At     shared.Timestamp  `json:"at"`
}

// Record persists one remittance call and its per-step outcomes, making
// partial failure observable and retryable instead of only logged. The
// record never changes the caller-facing result of the call it describes.
type Record struct {
	ID                  int64                   `json:"id"`
	DriverTransactionID string                  `json:"driver_transaction_id"`
	DriverID            string                  `json:"driver_id"`
	Actor               shared.Role             `json:"actor"`
	NetAmount           float64                 `json:"net_amount"`
	VendorTransactionID string                  `json:"vendor_transaction_id,omitempty"`
	CounterpartExplicit bool                    `json:"counterpart_explicit"`
	OrderID             string                  `json:"order_id,omitempty"`
	SignatureURL        string                  `json:"signature_url,omitempty"`
	SignaturePath       string                  `json:"signature_path,omitempty"`
	Status              shared.RemittanceStatus `json:"status"`
	Steps               []StepResult            `json:"steps"`
	Attempts            int                     `json:"attempts"`
	CorrelationID       string                  `json:"correlation_id,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	LastAttemptAt       *time.Time              `json:"last_attempt_at,omitempty"`
}

// NewRecord starts a running record for one remittance call. The live call
// counts as the first attempt; the retry poller increments from there.
func NewRecord(driverTransactionID, driverID string, actor shared.Role, netAmount float64, vendorTransactionID, orderID, correlationID string) *Record {
	return &Record{
		DriverTransactionID: driverTransactionID,
		DriverID:            driverID,
		Actor:               actor,
		NetAmount:           netAmount,
		VendorTransactionID: vendorTransactionID,
		CounterpartExplicit: vendorTransactionID != "",
		OrderID:             orderID,
		Status:              shared.RemittanceStatusRunning,
		Attempts:            1,
		CorrelationID:       correlationID,
		CreatedAt:           time.Now(),
	}
}

// RecordStep appends or replaces the outcome for a named step
func (r *Record) RecordStep(name string, status shared.StepStatus, stepErr error) {
	result := StepResult{Name: name, Status: status, At: shared.TimestampNow()}
	if stepErr != nil {
		result.Error = stepErr.Error()
	}
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			r.Steps[i] = result
			return
		}
	}
	r.Steps = append(r.Steps, result)
}

// StepOutcome returns the recorded outcome for a named step
func (r *Record) StepOutcome(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// HasFailedSteps reports whether any step still needs a retry
func (r *Record) HasFailedSteps() bool {
	for _, s := range r.Steps {
		if s.Status == shared.StepStatusFailed {
			return true
		}
	}
	return false
}

// Finalize derives the record status from the recorded step outcomes and
// stamps the attempt time. A failed upload is terminal: the signature bytes
// are gone, so the poller cannot re-drive the call.
func (r *Record) Finalize() {
	now := time.Now()
	r.LastAttemptAt = &now

	if upload, ok := r.StepOutcome(StepUploadSignature); ok && upload.Status == shared.StepStatusFailed {
		r.Status = shared.RemittanceStatusFailed
		return
	}
	if r.HasFailedSteps() {
		r.Status = shared.RemittanceStatusPartial
		return
	}
	r.Status = shared.RemittanceStatusCompleted
}

// MarkExhausted parks the record once the retry budget is spent
func (r *Record) MarkExhausted() {
	r.Status = shared.RemittanceStatusFailed
	now := time.Now()
	r.LastAttemptAt = &now
}

// IncrementAttempts counts one retry pass
func (r *Record) IncrementAttempts() {
	r.Attempts++
	now := time.Now()
	r.LastAttemptAt = &now
}
