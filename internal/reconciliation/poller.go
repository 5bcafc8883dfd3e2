package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/courierhub-platform/internal/config"
	"github.com/courierhub-platform/internal/domain/remittance"
)

// RecordRetrier re-drives the failed steps of a remittance record
type RecordRetrier interface {
	Retry(ctx context.Context, rec *remittance.Record) error
}

// RetryPoller drains partially reconciled remittance records: transaction
// pairs whose signature was stored but whose ledger updates or cash
// decrement did not all land. Records past the attempt cap are parked as
// failed for manual follow-up.
type RetryPoller struct {
	records          remittance.Repository
	retrier          RecordRetrier
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewRetryPoller(
	cfg *config.RemittanceConfig,
	records remittance.Repository,
	retrier RecordRetrier,
	logger *slog.Logger,
) *RetryPoller {
	return &RetryPoller{
		records:          records,
		retrier:          retrier,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *RetryPoller) Start(ctx context.Context) {
	p.logger.Info("Starting Remittance Retry Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Remittance Retry Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Remittance Retry Poller tick: processing retryable records")
			if err := p.processRetryableRecords(ctx); err != nil {
				p.logger.Error("Error during batch processing of retryable remittance records", "error", err)
			}
		}
	}
}

func (p *RetryPoller) processRetryableRecords(ctx context.Context) error {
	records, err := p.records.GetRetryable(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get retryable remittance records: %w", err)
	}

	if len(records) == 0 {
		p.logger.Debug("No retryable remittance records found.")
		return nil
	}

	p.logger.Info("Fetched retryable remittance records", "count", len(records))

	for _, rec := range records {
		logger := p.logger
		if rec.CorrelationID != "" {
			logger = p.logger.With("correlation_id", rec.CorrelationID)
		}

		if rec.Attempts >= p.maxRetryAttempts {
			logger.Warn("Max retry attempts reached for remittance record, parking as failed",
				"remittance_record_id", rec.ID, "driver_transaction_id", rec.DriverTransactionID, "attempts_made", rec.Attempts,
			)
			rec.MarkExhausted()
			if errUpdate := p.records.Update(ctx, rec); errUpdate != nil {
				logger.Error("Failed to park exhausted remittance record", "remittance_record_id", rec.ID, "error", errUpdate)
			}
			continue
		}

		rec.IncrementAttempts()
		if err := p.retrier.Retry(ctx, rec); err != nil {
			logger.Error("Failed to retry remittance record",
				"remittance_record_id", rec.ID, "driver_transaction_id", rec.DriverTransactionID, "current_attempts", rec.Attempts, "error", err,
			)
			continue
		}
		logger.Info("Retried remittance record", "remittance_record_id", rec.ID, "status", string(rec.Status))
	}
	return nil
}
