package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courierhub-platform/internal/api_gateway/handler"
	"github.com/courierhub-platform/internal/api_gateway/middleware"
	"github.com/courierhub-platform/internal/domain/shared"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	driverHandler *handler.DriverHandler,
	vendorHandler *handler.VendorHandler,
	walletHandler *handler.WalletHandler,
	orderHandler *handler.OrderHandler,
	remittanceHandler *handler.RemittanceHandler,
	transactionHandler *handler.TransactionHandler,
	watchHandler *handler.WatchHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.ActorContext(logger))

	adminOnly := middleware.RequireRole(shared.RoleAdmin)

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Driver operations
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", adminOnly, driverHandler.Register)
			drivers.GET("", adminOnly, driverHandler.List)
			drivers.GET("/:id", driverHandler.GetByID)
			drivers.GET("/:id/transactions", transactionHandler.ListByDriver)
		}

		// Vendor operations
		vendors := v1.Group("/vendors")
		{
			vendors.POST("", vendorHandler.Register)
			vendors.GET("", vendorHandler.List)
			vendors.GET("/:id", vendorHandler.GetByID)
			vendors.POST("/:id/approval", adminOnly, vendorHandler.Decide)
			vendors.GET("/:id/orders", orderHandler.ListByVendor)
			vendors.GET("/:id/transactions", transactionHandler.ListByVendor)
		}

		// Wallet operations
		wallets := v1.Group("/wallets")
		{
			wallets.POST("", walletHandler.Create)
			wallets.GET("/:id", walletHandler.GetByID)
			wallets.POST("/:id/adjustments", adminOnly, walletHandler.Adjust)
			wallets.GET("/:id/adjustments", walletHandler.ListAdjustments)
		}

		// Order operations
		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.RequireRole(shared.RoleVendor, shared.RoleAdmin), orderHandler.Create)
			orders.GET("/:id", orderHandler.GetByID)
			orders.POST("/:id/assignment", adminOnly, orderHandler.Assign)
			orders.POST("/:id/delivery", middleware.RequireRole(shared.RoleDriver), orderHandler.Deliver)
		}

		// Remittance operations
		remittances := v1.Group("/remittances")
		{
			remittances.POST("", middleware.RequireRole(shared.RoleDriver, shared.RoleVendor), remittanceHandler.Remit)
			remittances.GET("/:id", remittanceHandler.GetRecord)
		}

		// Ledger transaction reads and live snapshots
		transactions := v1.Group("/transactions")
		{
			transactions.GET("/watch", watchHandler.Watch)
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.GET("/:id/counterpart", transactionHandler.GetCounterpart)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
