package handler

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courierhub-platform/internal/api_gateway/middleware"
	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/reconciliation"
)

// RemittanceHandler handles HTTP requests for cash remittance operations
type RemittanceHandler struct {
	remittanceService service.RemittanceService
	logger            *slog.Logger
}

// NewRemittanceHandler creates a new remittance handler
func NewRemittanceHandler(logger *slog.Logger, remittanceService service.RemittanceService) *RemittanceHandler {
	return &RemittanceHandler{
		remittanceService: remittanceService,
		logger:            logger,
	}
}

// Remit accepts a multipart remittance call: form fields plus the signature
// image under the "signature" file part. Only validation and signature
// storage failures fail the request; ledger updates that fail afterwards are
// recorded on the remittance record and retried in the background.
func (h *RemittanceHandler) Remit(c *gin.Context) {
	var req RemitRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Error("Invalid remittance form", "error", err)
		RespondBadRequest(c, "Invalid remittance form: "+err.Error())
		return
	}

	fileHeader, err := c.FormFile("signature")
	if err != nil {
		RespondBadRequest(c, "Signature file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open signature file", "error", err)
		RespondBadRequest(c, "Unreadable signature file")
		return
	}
	defer file.Close()

	signature, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read signature file", "error", err)
		RespondBadRequest(c, "Unreadable signature file")
		return
	}

	actor, _ := middleware.GetActor(c)

	cmd := reconciliation.RemitCommand{
		DriverID:            req.DriverID,
		DriverTransactionID: req.DriverTransactionID,
		NetAmount:           req.NetAmount,
		Signature:           signature,
		Actor:               actor,
		VendorTransactionID: req.VendorTransactionID,
		VendorID:            req.VendorID,
		OrderID:             req.OrderID,
		CorrelationID:       middleware.GetCorrelationID(c),
	}

	receipt, err := h.remittanceService.Remit(c.Request.Context(), cmd)
	if err != nil {
		var validationErr reconciliation.ValidationError
		if errors.As(err, &validationErr) {
			RespondBadRequest(c, "Invalid remittance: "+validationErr.Reason)
			return
		}
		var uploadErr reconciliation.UploadError
		if errors.As(err, &uploadErr) {
			h.logger.Error("Failed to store remittance signature",
				"driver_transaction_id", req.DriverTransactionID,
				"error", err,
			)
			RespondInternalError(c)
			return
		}
		h.logger.Error("Failed to remit", "driver_transaction_id", req.DriverTransactionID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, RemitResponse{
		SignatureURL:  receipt.SignatureURL,
		SignaturePath: receipt.SignaturePath,
	})
}

// GetRecord retrieves the latest reconciliation record for a driver
// transaction, returning 404 if the transaction was never remitted
func (h *RemittanceHandler) GetRecord(c *gin.Context) {
	driverTransactionID := c.Param("id")

	rec, err := h.remittanceService.GetRecordForTransaction(c.Request.Context(), driverTransactionID)
	if err != nil {
		if errors.Is(err, remittance.ErrNoRecordForTransaction{}) {
			RespondNotFound(c, "No remittance record for this transaction")
			return
		}
		h.logger.Error("Failed to get remittance record", "driver_transaction_id", driverTransactionID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapRecordToResponse(rec))
}

// mapRecordToResponse maps a remittance record to its response DTO
func mapRecordToResponse(rec *remittance.Record) RemittanceRecordResponse {
	response := RemittanceRecordResponse{
		ID:                  rec.ID,
		DriverTransactionID: rec.DriverTransactionID,
		DriverID:            rec.DriverID,
		Actor:               string(rec.Actor),
		NetAmount:           rec.NetAmount,
		VendorTransactionID: rec.VendorTransactionID,
		OrderID:             rec.OrderID,
		SignatureURL:        rec.SignatureURL,
		SignaturePath:       rec.SignaturePath,
		Status:              string(rec.Status),
		Attempts:            rec.Attempts,
		CreatedAt:           rec.CreatedAt.Format(time.RFC3339),
	}

	if rec.LastAttemptAt != nil {
		response.LastAttemptAt = rec.LastAttemptAt.Format(time.RFC3339)
	}

	for _, step := range rec.Steps {
		response.Steps = append(response.Steps, RemittanceStepResponse{
			Name:   step.Name,
			Status: string(step.Status),
			Error:  step.Error,
			At:     step.At.Time().Format(time.RFC3339),
		})
	}

	return response
}
