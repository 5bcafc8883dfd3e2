package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/courierhub-platform/internal/api_gateway/handler"
	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/config"
	"github.com/courierhub-platform/internal/domain/ledger"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger
	httpServer      *http.Server
	httpRouter      *gin.Engine
	shutdownTimeout time.Duration
}

// Services bundles everything the gateway serves; NewServer wires one
// handler per service into the route table.
type Services struct {
	Drivers      service.DriverService
	Vendors      service.VendorService
	Wallets      service.WalletService
	Orders       service.OrderService
	Remittances  service.RemittanceService
	Transactions service.TransactionService
	Watcher      ledger.Watcher
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	driverHandler := handler.NewDriverHandler(log, services.Drivers)
	vendorHandler := handler.NewVendorHandler(log, services.Vendors)
	walletHandler := handler.NewWalletHandler(log, services.Wallets)
	orderHandler := handler.NewOrderHandler(log, services.Orders)
	remittanceHandler := handler.NewRemittanceHandler(log, services.Remittances)
	transactionHandler := handler.NewTransactionHandler(log, services.Transactions)
	watchHandler := handler.NewWatchHandler(&cfg.Watch, log, services.Watcher)

	setupRouter(log, httpRouter,
		driverHandler,
		vendorHandler,
		walletHandler,
		orderHandler,
		remittanceHandler,
		transactionHandler,
		watchHandler,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
