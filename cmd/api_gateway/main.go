package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/courierhub-platform/internal/api_gateway"
	"github.com/courierhub-platform/internal/api_gateway/service"
	"github.com/courierhub-platform/internal/config"
	"github.com/courierhub-platform/internal/data/mongo"
	"github.com/courierhub-platform/internal/data/postgres"
	"github.com/courierhub-platform/internal/logger"
	"github.com/courierhub-platform/internal/platform/messaging/producers"
	"github.com/courierhub-platform/internal/platform/persistence"
	"github.com/courierhub-platform/internal/platform/storage"
	"github.com/courierhub-platform/internal/reconciliation"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for order lifecycle events
	kafkaProducer, err := producers.NewOrderEventMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize order event Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize object storage for remittance signatures
	objectStore, err := storage.NewS3ObjectStorage(log, &cfg.Storage)
	if err != nil {
		log.Error("Failed to initialize object storage", "error", err)
		os.Exit(1)
	}
	if err := objectStore.EnsureBucket(appCtx); err != nil {
		log.Error("Failed to ensure storage bucket", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	driverRepo := postgres.NewDriverRepository(log, postgresDB)
	vendorRepo := postgres.NewVendorRepository(log, postgresDB)
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	remittanceRepo := postgres.NewRemittanceRepository(log, postgresDB)
	orderRepo := mongo.NewOrderRepository(log, mongoDB.Database())
	driverTxnRepo := mongo.NewDriverTransactionRepository(log, mongoDB.Database())
	vendorTxnRepo := mongo.NewVendorTransactionRepository(log, mongoDB.Database())

	// Initialize the change stream watcher backing live transaction feeds
	watcher := mongo.NewChangeStreamWatcher(log, mongoDB.Database(), driverTxnRepo, vendorTxnRepo, cfg.Watch.Debounce)
	watcher.Start(appCtx)

	// Initialize the remittance reconciliation sequence
	remitter := reconciliation.NewRemitter(log, objectStore, driverTxnRepo, vendorTxnRepo, driverRepo, remittanceRepo)

	// Initialize services
	driverService := service.NewDriverService(driverRepo)
	vendorService := service.NewVendorService(log, vendorRepo)
	walletService := service.NewWalletService(log, walletRepo, postgresDB)
	orderService := service.NewOrderService(log, orderRepo, vendorRepo, kafkaProducer)
	remittanceService := service.NewRemittanceService(remitter, remittanceRepo)
	transactionService := service.NewTransactionService(log, driverTxnRepo, vendorTxnRepo)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Drivers:      driverService,
		Vendors:      vendorService,
		Wallets:      walletService,
		Orders:       orderService,
		Remittances:  remittanceService,
		Transactions: transactionService,
		Watcher:      watcher,
	})
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context; this also ends watch subscriptions
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight requests can still reach the stores
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
