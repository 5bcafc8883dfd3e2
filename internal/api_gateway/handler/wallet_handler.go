package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/api_gateway/middleware"
	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/domain/wallet"
)

// WalletHandler handles HTTP requests for wallet operations
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// Create handles creation of a wallet for a platform user
func (h *WalletHandler) Create(c *gin.Context) {
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	w, err := h.walletService.CreateWallet(c.Request.Context(), req.UserID, req.Currency)
	if err != nil {
		var duplicateErr wallet.ErrDuplicateWallet
		if errors.As(err, &duplicateErr) {
			h.logger.Warn("Attempt to create duplicate wallet", "user_id", duplicateErr.UserID)
			RespondBadRequest(c, "Wallet already exists for this user")
			return
		}
		h.logger.Error("Failed to create wallet", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapWalletToResponse(w))
}

// GetByID retrieves a wallet by its ID, returning 404 if not found
func (h *WalletHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid wallet ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	w, err := h.walletService.GetWalletByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to get wallet", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// Adjust applies an admin balance adjustment. The delta and its audit record
// land in one database transaction.
func (h *WalletHandler) Adjust(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid wallet ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	var req AdjustWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.logger.Error("Invalid adjustment amount", "amount", req.Amount, "error", err)
		RespondBadRequest(c, "Invalid adjustment amount")
		return
	}

	actor, _ := middleware.GetActor(c)

	adj, err := h.walletService.Adjust(c.Request.Context(), id, amount, req.Reason, actor.ID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		if errors.Is(err, wallet.ErrZeroAdjustment) {
			RespondBadRequest(c, "Adjustment amount must be non-zero")
			return
		}
		h.logger.Error("Failed to adjust wallet", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAdjustmentToResponse(adj))
}

// ListAdjustments retrieves the paginated audit trail for a wallet
func (h *WalletHandler) ListAdjustments(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid wallet ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid wallet ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	adjustments, total, err := h.walletService.ListAdjustments(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list wallet adjustments", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	var responses []AdjustmentResponse
	for _, adj := range adjustments {
		responses = append(responses, mapAdjustmentToResponse(adj))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// mapWalletToResponse maps a wallet entity to a wallet response DTO
func mapWalletToResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		UserID:    w.UserID,
		Currency:  w.Currency,
		Balance:   w.Balance.StringFixed(2),
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// mapAdjustmentToResponse maps a wallet adjustment to a response DTO
func mapAdjustmentToResponse(adj *wallet.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:        adj.ID,
		WalletID:  adj.WalletID.String(),
		Amount:    adj.Amount.StringFixed(2),
		Reason:    adj.Reason,
		ActorID:   adj.ActorID,
		CreatedAt: adj.CreatedAt.Format(time.RFC3339),
	}
}
