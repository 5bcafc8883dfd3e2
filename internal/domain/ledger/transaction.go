package ledger

import (
	"github.com/courierhub-platform/internal/domain/shared"
)

// DriverTransaction is the driver-side ledger entry for one delivered order:
// the cash the driver collected and must later remit. Amounts are carried as
// float64 exactly as they appear on the wire and in the documents.
type DriverTransaction struct {
	ID                  string                   `json:"id" bson:"_id"`
	DriverID            string                   `json:"driver_id" bson:"driver_id"`
	VendorTransactionID string                   `json:"vendor_transaction_id,omitempty" bson:"vendor_transaction_id,omitempty"`
	OrderID             string                   `json:"order_id" bson:"order_id"`
	NetAmount           float64                  `json:"net_amount" bson:"net_amount"`
	Status              shared.TransactionStatus `json:"status" bson:"status"`
	RemittedAt          shared.Timestamp         `json:"remitted_at" bson:"remitted_at,omitempty"`
	SignatureURL        string                   `json:"signature_url,omitempty" bson:"signature_url,omitempty"`
	SignaturePath       string                   `json:"signature_path,omitempty" bson:"signature_path,omitempty"`
	CorrelationID       string                   `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt           shared.Timestamp         `json:"created_at" bson:"created_at"`
}

// VendorTransaction is the vendor-side ledger entry mirroring a driver
// collection: what the vendor is owed for the order, net of the platform
// commission.
type VendorTransaction struct {
	ID                  string                   `json:"id" bson:"_id"`
	DriverTransactionID string                   `json:"driver_transaction_id,omitempty" bson:"driver_transaction_id,omitempty"`
	OrderID             string                   `json:"order_id" bson:"order_id"`
	VendorID            string                   `json:"vendor_id" bson:"vendor_id"`
	DriverID            string                   `json:"driver_id" bson:"driver_id"`
	NetAmount           float64                  `json:"net_amount" bson:"net_amount"`
	CommissionAmount    float64                  `json:"commission_amount" bson:"commission_amount"`
	Status              shared.TransactionStatus `json:"status" bson:"status"`
	RemittedAt          shared.Timestamp         `json:"remitted_at" bson:"remitted_at,omitempty"`
	SignatureURL        string                   `json:"signature_url,omitempty" bson:"signature_url,omitempty"`
	SignaturePath       string                   `json:"signature_path,omitempty" bson:"signature_path,omitempty"`
	CorrelationID       string                   `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt           shared.Timestamp         `json:"created_at" bson:"created_at"`
}

// RemittanceUpdate carries the fields stamped onto one side of a transaction
// pair when cash is remitted. CounterpartID holds the opposite side's id and
// is only written when non-empty, so an update never clears an existing link.
type RemittanceUpdate struct {
	Status        shared.TransactionStatus
	RemittedAt    shared.Timestamp
	SignatureURL  string
	SignaturePath string
	CounterpartID string
}
