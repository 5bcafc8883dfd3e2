package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/domain/driver"
)

// DriverHandler handles HTTP requests for driver operations
type DriverHandler struct {
	driverService service.DriverService
	logger        *slog.Logger
}

// NewDriverHandler creates a new driver handler
func NewDriverHandler(logger *slog.Logger, driverService service.DriverService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		logger:        logger,
	}
}

// Register handles registration of a new driver, checking for duplicate phone numbers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	d, err := h.driverService.RegisterDriver(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		var duplicateErr driver.ErrDuplicatePhone
		if errors.As(err, &duplicateErr) {
			h.logger.Warn("Attempt to register driver with duplicate phone", "phone", duplicateErr.Phone)
			RespondBadRequest(c, "Driver with this phone number already exists")
			return
		}
		h.logger.Error("Failed to register driver", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapDriverToResponse(d))
}

// GetByID retrieves a driver by its ID, returning 404 if not found
func (h *DriverHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid driver ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid driver ID")
		return
	}

	d, err := h.driverService.GetDriverByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, driver.ErrDriverNotFound{}) {
			RespondNotFound(c, "Driver not found")
			return
		}
		h.logger.Error("Failed to get driver", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapDriverToResponse(d))
}

// List retrieves a paginated list of drivers
func (h *DriverHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	drivers, total, err := h.driverService.ListDrivers(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list drivers", "error", err)
		RespondInternalError(c)
		return
	}

	var responses []DriverResponse
	for _, d := range drivers {
		responses = append(responses, mapDriverToResponse(d))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapDriverToResponse maps a driver entity to a driver response DTO
func mapDriverToResponse(d *driver.Driver) DriverResponse {
	return DriverResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		Phone:      d.Phone,
		Status:     string(d.Status),
		CashOnHand: d.CashOnHand.StringFixed(2),
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}
