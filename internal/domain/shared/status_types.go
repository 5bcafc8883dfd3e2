package shared

// TransactionStatus defines settlement states shared by driver-side and
// vendor-side ledger transactions
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusRemitted   TransactionStatus = "remitted"
	TransactionStatusReconciled TransactionStatus = "reconciled"
)

// OrderStatus defines order lifecycle states
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// FailureReason defines order processing failure categories
type FailureReason string

const (
	FailureReasonDriverNotFound   FailureReason = "DRIVER_NOT_FOUND"
	FailureReasonDriverNotActive  FailureReason = "DRIVER_NOT_ACTIVE"
	FailureReasonOrderNotFound    FailureReason = "ORDER_NOT_FOUND"
	FailureReasonOrderNotPending  FailureReason = "ORDER_NOT_PENDING"
	FailureReasonOrderNotAssigned FailureReason = "ORDER_NOT_ASSIGNED_TO_DRIVER"
	FailureReasonVendorNotFound   FailureReason = "VENDOR_NOT_FOUND"
	FailureReasonSettlementFailed FailureReason = "SETTLEMENT_COMMIT_FAILED"
	FailureReasonUnknownError     FailureReason = "UNKNOWN_ERROR"
)

// RemittanceStatus defines reconciliation outcomes on a remittance record
type RemittanceStatus string

const (
	RemittanceStatusRunning   RemittanceStatus = "running"
	RemittanceStatusCompleted RemittanceStatus = "completed"
	RemittanceStatusPartial   RemittanceStatus = "partial"
	RemittanceStatusFailed    RemittanceStatus = "failed"
)

// StepStatus defines per-step outcomes recorded on a remittance record
type StepStatus string

const (
	StepStatusOK      StepStatus = "ok"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)
