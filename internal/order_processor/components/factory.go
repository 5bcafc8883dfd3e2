package components

import (
	"log/slog"

	"github.com/courierhub-platform/internal/config"
	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/domain/ledger"
	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/vendor"
	"github.com/courierhub-platform/internal/order_processor/service"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	orderRepo order.Repository,
	driverRepo driver.Repository,
	vendorRepo vendor.Repository,
	driverTxns ledger.DriverTransactionRepository,
	vendorTxns ledger.VendorTransactionRepository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	verifier := NewDriverVerifier(driverRepo, logger)
	settlements := NewSettlementBuilder(driverTxns, vendorTxns, vendorRepo, logger)
	failureRecorder := NewFailureRecorder(orderRepo, logger)

	baseService := service.NewProcessingService(
		orderRepo,
		driverRepo,
		verifier,
		settlements,
		failureRecorder,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
