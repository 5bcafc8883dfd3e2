package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courierhub-platform/internal/api_gateway/middleware"
	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/domain/vendor"
)

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(logger *slog.Logger, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Create handles creation of a cash-on-delivery order. Vendors create orders
// for themselves; admins must name the vendor explicitly.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actor, _ := middleware.GetActor(c)

	vendorIDParam := req.VendorID
	if actor.Role == shared.RoleVendor {
		if vendorIDParam != "" && vendorIDParam != actor.ID {
			RespondForbidden(c, "Vendors can only create orders for themselves")
			return
		}
		vendorIDParam = actor.ID
	}
	if vendorIDParam == "" {
		RespondBadRequest(c, "Vendor ID is required")
		return
	}

	vendorID, err := uuid.Parse(vendorIDParam)
	if err != nil {
		h.logger.Error("Invalid vendor ID", "vendor_id", vendorIDParam, "error", err)
		RespondBadRequest(c, "Invalid vendor ID")
		return
	}

	o, err := h.orderService.CreateOrder(
		c.Request.Context(),
		vendorID,
		req.CustomerName,
		req.CustomerAddress,
		req.CODAmount,
		middleware.GetCorrelationID(c),
	)
	if err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound{}) {
			RespondBadRequest(c, "Vendor not found")
			return
		}
		if errors.Is(err, vendor.ErrNotApproved) {
			RespondForbidden(c, "Vendor is not approved")
			return
		}
		if errors.Is(err, order.ErrInvalidCODAmount) {
			RespondBadRequest(c, "Cash-on-delivery amount must be positive and finite")
			return
		}
		h.logger.Error("Failed to create order", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapOrderToResponse(o))
}

// GetByID retrieves an order by its ID, returning 404 if not found
func (h *OrderHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	o, err := h.orderService.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			RespondNotFound(c, "Order not found")
			return
		}
		h.logger.Error("Failed to get order", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapOrderToResponse(o))
}

// Assign publishes an ASSIGNED event for asynchronous processing and responds
// 202; driver eligibility is validated by the order processor
func (h *OrderHandler) Assign(c *gin.Context) {
	orderID := c.Param("id")

	var req AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.logger.Error("Invalid driver ID", "driver_id", req.DriverID, "error", err)
		RespondBadRequest(c, "Invalid driver ID")
		return
	}

	event, err := h.orderService.AssignOrder(c.Request.Context(), orderID, driverID, middleware.GetCorrelationID(c))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			RespondNotFound(c, "Order not found")
			return
		}
		h.logger.Error("Failed to request order assignment", "order_id", orderID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"event_id": event.EventID.String(),
		"order_id": event.OrderID,
		"status":   "PENDING",
	})
}

// Deliver publishes a DELIVERED event on behalf of the acting driver and
// responds 202; settlement happens in the order processor
func (h *OrderHandler) Deliver(c *gin.Context) {
	orderID := c.Param("id")
	actor, _ := middleware.GetActor(c)

	event, err := h.orderService.ConfirmDelivery(c.Request.Context(), orderID, actor.ID, middleware.GetCorrelationID(c))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			RespondNotFound(c, "Order not found")
			return
		}
		h.logger.Error("Failed to request delivery confirmation", "order_id", orderID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{
		"event_id": event.EventID.String(),
		"order_id": event.OrderID,
		"status":   "PENDING",
	})
}

// ListByVendor retrieves a paginated list of one vendor's orders
func (h *OrderHandler) ListByVendor(c *gin.Context) {
	vendorID := c.Param("id")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	orders, total, err := h.orderService.ListOrdersByVendor(c.Request.Context(), vendorID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list orders", "vendor_id", vendorID, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []OrderResponse
	for _, o := range orders {
		responses = append(responses, mapOrderToResponse(o))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapOrderToResponse maps an order document to an order response DTO
func mapOrderToResponse(o *order.Order) OrderResponse {
	response := OrderResponse{
		ID:              o.ID,
		VendorID:        o.VendorID,
		DriverID:        o.DriverID,
		CustomerName:    o.CustomerName,
		CustomerAddress: o.CustomerAddress,
		CODAmount:       o.CODAmount,
		Status:          string(o.Status),
		ProcessingError: o.ProcessingError,
		CreatedAt:       o.CreatedAt.Time().Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Time().Format(time.RFC3339),
	}

	if !o.AssignedAt.IsZero() {
		response.AssignedAt = o.AssignedAt.Time().Format(time.RFC3339)
	}
	if !o.DeliveredAt.IsZero() {
		response.DeliveredAt = o.DeliveredAt.Time().Format(time.RFC3339)
	}

	return response
}
