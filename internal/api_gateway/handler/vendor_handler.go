package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/domain/vendor"
)

// VendorHandler handles HTTP requests for vendor operations
type VendorHandler struct {
	vendorService service.VendorService
	logger        *slog.Logger
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(logger *slog.Logger, vendorService service.VendorService) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
		logger:        logger,
	}
}

// Register handles registration of a new vendor awaiting approval
func (h *VendorHandler) Register(c *gin.Context) {
	var req RegisterVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rate, err := decimal.NewFromString(req.CommissionRate)
	if err != nil {
		h.logger.Error("Invalid commission rate", "commission_rate", req.CommissionRate, "error", err)
		RespondBadRequest(c, "Invalid commission rate")
		return
	}

	v, err := h.vendorService.RegisterVendor(c.Request.Context(), req.Name, req.ContactEmail, rate)
	if err != nil {
		var duplicateErr vendor.ErrDuplicateEmail
		if errors.As(err, &duplicateErr) {
			h.logger.Warn("Attempt to register vendor with duplicate email", "contact_email", duplicateErr.ContactEmail)
			RespondBadRequest(c, "Vendor with this contact email already exists")
			return
		}
		if errors.Is(err, vendor.ErrInvalidCommissionRate) {
			RespondBadRequest(c, "Commission rate must be between 0 and 1")
			return
		}
		h.logger.Error("Failed to register vendor", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapVendorToResponse(v))
}

// GetByID retrieves a vendor by its ID, returning 404 if not found
func (h *VendorHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid vendor ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid vendor ID")
		return
	}

	v, err := h.vendorService.GetVendorByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound{}) {
			RespondNotFound(c, "Vendor not found")
			return
		}
		h.logger.Error("Failed to get vendor", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapVendorToResponse(v))
}

// List retrieves a paginated list of vendors
func (h *VendorHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	vendors, total, err := h.vendorService.ListVendors(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list vendors", "error", err)
		RespondInternalError(c)
		return
	}

	var responses []VendorResponse
	for _, v := range vendors {
		responses = append(responses, mapVendorToResponse(v))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// Decide applies an admin approve/reject decision to a pending vendor.
// Deciding twice returns 409; the first decision stands.
func (h *VendorHandler) Decide(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid vendor ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid vendor ID")
		return
	}

	var req VendorApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	v, err := h.vendorService.DecideApproval(c.Request.Context(), id, req.Decision == "approve", req.Reason)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound{}) {
			RespondNotFound(c, "Vendor not found")
			return
		}
		if errors.Is(err, vendor.ErrNotPending) {
			RespondConflict(c, "Vendor approval already decided")
			return
		}
		h.logger.Error("Failed to decide vendor approval", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapVendorToResponse(v))
}

// mapVendorToResponse maps a vendor entity to a vendor response DTO
func mapVendorToResponse(v *vendor.Vendor) VendorResponse {
	return VendorResponse{
		ID:             v.ID.String(),
		Name:           v.Name,
		ContactEmail:   v.ContactEmail,
		Status:         string(v.Status),
		CommissionRate: v.CommissionRate.String(),
		RejectReason:   v.RejectReason,
		CreatedAt:      v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      v.UpdatedAt.Format(time.RFC3339),
	}
}
