package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/domain/ledger"
)

// TransactionHandler handles HTTP requests for ledger transaction reads
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// GetByID retrieves a driver-side ledger entry, returning 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	txn, err := h.transactionService.GetDriverTransactionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapDriverTransactionToResponse(txn))
}

// GetCounterpart resolves the vendor-side entry paired with a driver
// transaction, returning 404 when the pair has no vendor side
func (h *TransactionHandler) GetCounterpart(c *gin.Context) {
	id := c.Param("id")

	counterpart, err := h.transactionService.GetCounterpart(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to resolve counterpart", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	if counterpart == nil {
		RespondNotFound(c, "No counterpart transaction")
		return
	}

	RespondOK(c, mapVendorTransactionToResponse(counterpart))
}

// ListByDriver retrieves paginated driver-side entries for one driver
func (h *TransactionHandler) ListByDriver(c *gin.Context) {
	driverID := c.Param("id")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transactionService.ListByDriverID(c.Request.Context(), driverID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list driver transactions", "driver_id", driverID, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []DriverTransactionResponse
	for _, entry := range entries {
		responses = append(responses, mapDriverTransactionToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// ListByVendor retrieves paginated vendor-side entries for one vendor
func (h *TransactionHandler) ListByVendor(c *gin.Context) {
	vendorID := c.Param("id")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transactionService.ListByVendorID(c.Request.Context(), vendorID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list vendor transactions", "vendor_id", vendorID, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []VendorTransactionResponse
	for _, entry := range entries {
		responses = append(responses, mapVendorTransactionToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapDriverTransactionToResponse maps a driver-side entry to its response DTO
func mapDriverTransactionToResponse(txn *ledger.DriverTransaction) DriverTransactionResponse {
	response := DriverTransactionResponse{
		ID:                  txn.ID,
		DriverID:            txn.DriverID,
		VendorTransactionID: txn.VendorTransactionID,
		OrderID:             txn.OrderID,
		NetAmount:           txn.NetAmount,
		Status:              string(txn.Status),
		SignatureURL:        txn.SignatureURL,
		CreatedAt:           txn.CreatedAt.Time().Format(time.RFC3339),
	}

	if !txn.RemittedAt.IsZero() {
		response.RemittedAt = txn.RemittedAt.Time().Format(time.RFC3339)
	}

	return response
}

// mapVendorTransactionToResponse maps a vendor-side entry to its response DTO
func mapVendorTransactionToResponse(txn *ledger.VendorTransaction) VendorTransactionResponse {
	response := VendorTransactionResponse{
		ID:                  txn.ID,
		DriverTransactionID: txn.DriverTransactionID,
		OrderID:             txn.OrderID,
		VendorID:            txn.VendorID,
		DriverID:            txn.DriverID,
		NetAmount:           txn.NetAmount,
		CommissionAmount:    txn.CommissionAmount,
		Status:              string(txn.Status),
		SignatureURL:        txn.SignatureURL,
		CreatedAt:           txn.CreatedAt.Time().Format(time.RFC3339),
	}

	if !txn.RemittedAt.IsZero() {
		response.RemittedAt = txn.RemittedAt.Time().Format(time.RFC3339)
	}

	return response
}
