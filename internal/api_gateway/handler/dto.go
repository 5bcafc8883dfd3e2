package handler

// RegisterDriverRequest represents a request to register a new driver
type RegisterDriverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// DriverResponse represents a driver in API responses. CashOnHand is a
// decimal string to keep cents exact on the wire.
type DriverResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	CashOnHand string `json:"cash_on_hand"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// RegisterVendorRequest represents a request to register a new vendor.
// CommissionRate is a decimal string, e.g. "0.15" for 15%.
type RegisterVendorRequest struct {
	Name           string `json:"name" binding:"required"`
	ContactEmail   string `json:"contact_email" binding:"required,email"`
	CommissionRate string `json:"commission_rate" binding:"required"`
}

// VendorApprovalRequest represents an admin decision on a pending vendor
type VendorApprovalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string `json:"reason,omitempty"`
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContactEmail   string `json:"contact_email"`
	Status         string `json:"status"`
	CommissionRate string `json:"commission_rate"`
	RejectReason   string `json:"reject_reason,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// CreateWalletRequest represents a request to create a wallet for a user
type CreateWalletRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AdjustWalletRequest represents an admin balance adjustment. Amount is a
// signed decimal string; positive credits, negative debits.
type AdjustWalletRequest struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustmentResponse represents one wallet audit record in API responses
type AdjustmentResponse struct {
	ID        int64  `json:"id"`
	WalletID  string `json:"wallet_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
	ActorID   string `json:"actor_id"`
	CreatedAt string `json:"created_at"`
}

// CreateOrderRequest represents a request to create a cash-on-delivery order.
// VendorID is taken from the acting vendor when omitted; admins must supply it.
type CreateOrderRequest struct {
	VendorID        string  `json:"vendor_id,omitempty"`
	CustomerName    string  `json:"customer_name" binding:"required"`
	CustomerAddress string  `json:"customer_address" binding:"required"`
	CODAmount       float64 `json:"cod_amount" binding:"required,gt=0"`
}

// AssignOrderRequest represents an admin assigning an order to a driver
type AssignOrderRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              string  `json:"id"`
	VendorID        string  `json:"vendor_id"`
	DriverID        string  `json:"driver_id,omitempty"`
	CustomerName    string  `json:"customer_name"`
	CustomerAddress string  `json:"customer_address"`
	CODAmount       float64 `json:"cod_amount"`
	Status          string  `json:"status"`
	ProcessingError string  `json:"processing_error,omitempty"`
	AssignedAt      string  `json:"assigned_at,omitempty"`
	DeliveredAt     string  `json:"delivered_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// RemitRequest represents the form fields of a multipart remittance call;
// the signature image travels as the "signature" file part
type RemitRequest struct {
	DriverID            string  `form:"driver_id" binding:"required"`
	DriverTransactionID string  `form:"driver_transaction_id" binding:"required"`
	NetAmount           float64 `form:"net_amount"`
	VendorTransactionID string  `form:"vendor_transaction_id"`
	VendorID            string  `form:"vendor_id"`
	OrderID             string  `form:"order_id"`
}

// RemitResponse represents the receipt returned once the signature is stored
type RemitResponse struct {
	SignatureURL  string `json:"signature_url"`
	SignaturePath string `json:"signature_path"`
}

// RemittanceStepResponse represents one step outcome of a remittance record
type RemittanceStepResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	At     string `json:"at"`
}

// RemittanceRecordResponse represents the per-step outcome record of a
// remittance call, the observable surface for partial reconciliation
type RemittanceRecordResponse struct {
	ID                  int64                    `json:"id"`
	DriverTransactionID string                   `json:"driver_transaction_id"`
	DriverID            string                   `json:"driver_id"`
	Actor               string                   `json:"actor"`
	NetAmount           float64                  `json:"net_amount"`
	VendorTransactionID string                   `json:"vendor_transaction_id,omitempty"`
	OrderID             string                   `json:"order_id,omitempty"`
	SignatureURL        string                   `json:"signature_url,omitempty"`
	SignaturePath       string                   `json:"signature_path,omitempty"`
	Status              string                   `json:"status"`
	Steps               []RemittanceStepResponse `json:"steps"`
	Attempts            int                      `json:"attempts"`
	CreatedAt           string                   `json:"created_at"`
	LastAttemptAt       string                   `json:"last_attempt_at,omitempty"`
}

// DriverTransactionResponse represents a driver-side ledger entry in API responses
type DriverTransactionResponse struct {
	ID                  string  `json:"id"`
	DriverID            string  `json:"driver_id"`
	VendorTransactionID string  `json:"vendor_transaction_id,omitempty"`
	OrderID             string  `json:"order_id"`
	NetAmount           float64 `json:"net_amount"`
	Status              string  `json:"status"`
	RemittedAt          string  `json:"remitted_at,omitempty"`
	SignatureURL        string  `json:"signature_url,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

// VendorTransactionResponse represents a vendor-side ledger entry in API responses
type VendorTransactionResponse struct {
	ID                  string  `json:"id"`
	DriverTransactionID string  `json:"driver_transaction_id,omitempty"`
	OrderID             string  `json:"order_id"`
	VendorID            string  `json:"vendor_id"`
	DriverID            string  `json:"driver_id"`
	NetAmount           float64 `json:"net_amount"`
	CommissionAmount    float64 `json:"commission_amount"`
	Status              string  `json:"status"`
	RemittedAt          string  `json:"remitted_at,omitempty"`
	SignatureURL        string  `json:"signature_url,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

// WatchQuery represents the filter for a live transaction snapshot stream
type WatchQuery struct {
	DriverID string `form:"driver_id"`
	VendorID string `form:"vendor_id"`
	Status   string `form:"status" binding:"omitempty,oneof=pending remitted reconciled"`
	Limit    int64  `form:"limit,default=50" binding:"min=1,max=500"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
