package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/remittance"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// RemittanceRepository implements the remittance.Repository interface for PostgreSQL
type RemittanceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRemittanceRepository creates a new PostgreSQL remittance record repository
func NewRemittanceRepository(logger *slog.Logger, db *persistence.PostgresDB) remittance.Repository {
	return &RemittanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new remittance record and sets rec.ID from the generated key.
// Partial records will be picked up by the retry poller.
func (r *RemittanceRepository) Create(ctx context.Context, rec *remittance.Record) error {
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal remittance steps: %w", err)
	}

	query := `
		INSERT INTO remittance_records (driver_transaction_id, driver_id, actor, net_amount, vendor_transaction_id, counterpart_explicit, order_id, signature_url, signature_path, status, steps, attempts, correlation_id, created_at, last_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	err = r.querier.QueryRow(ctx, query,
		rec.DriverTransactionID,
		rec.DriverID,
		rec.Actor,
		rec.NetAmount,
		rec.VendorTransactionID,
		rec.CounterpartExplicit,
		rec.OrderID,
		rec.SignatureURL,
		rec.SignaturePath,
		rec.Status,
		steps,
		rec.Attempts,
		rec.CorrelationID,
		rec.CreatedAt,
		rec.LastAttemptAt,
	).Scan(&rec.ID)

	if err != nil {
		r.logger.Error("Failed to create remittance record",
			"driver_transaction_id", rec.DriverTransactionID,
			"error", err,
		)
		return fmt.Errorf("failed to create remittance record: %w", err)
	}

	return nil
}

// Update persists the mutable slice of a record: status, step outcomes,
// resolved counterpart link, uploaded signature location, and attempt counters.
// Returns ErrRecordNotFound if the record doesn't exist.
func (r *RemittanceRepository) Update(ctx context.Context, rec *remittance.Record) error {
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal remittance steps: %w", err)
	}

	query := `
		UPDATE remittance_records
		SET status = $1, steps = $2, vendor_transaction_id = $3, signature_url = $4, signature_path = $5, attempts = $6, last_attempt_at = $7
		WHERE id = $8
	`

	result, err := r.querier.Exec(ctx, query,
		rec.Status,
		steps,
		rec.VendorTransactionID,
		rec.SignatureURL,
		rec.SignaturePath,
		rec.Attempts,
		rec.LastAttemptAt,
		rec.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update remittance record",
			"id", rec.ID,
			"error", err,
		)
		return fmt.Errorf("failed to update remittance record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return remittance.ErrRecordNotFound{ID: rec.ID}
	}

	return nil
}

// GetByID retrieves a remittance record by its ID
func (r *RemittanceRepository) GetByID(ctx context.Context, id int64) (*remittance.Record, error) {
	query := `
		SELECT id, driver_transaction_id, driver_id, actor, net_amount, vendor_transaction_id, counterpart_explicit, order_id, signature_url, signature_path, status, steps, attempts, correlation_id, created_at, last_attempt_at
		FROM remittance_records
		WHERE id = $1
	`

	rec, err := r.scanRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, remittance.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get remittance record", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get remittance record: %w", err)
	}

	return rec, nil
}

// GetLatestByDriverTransactionID returns the most recent record for a driver
// transaction. Returns ErrNoRecordForTransaction if the transaction was never
// remitted.
func (r *RemittanceRepository) GetLatestByDriverTransactionID(ctx context.Context, driverTransactionID string) (*remittance.Record, error) {
	query := `
		SELECT id, driver_transaction_id, driver_id, actor, net_amount, vendor_transaction_id, counterpart_explicit, order_id, signature_url, signature_path, status, steps, attempts, correlation_id, created_at, last_attempt_at
		FROM remittance_records
		WHERE driver_transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	rec, err := r.scanRecord(r.querier.QueryRow(ctx, query, driverTransactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, remittance.ErrNoRecordForTransaction{DriverTransactionID: driverTransactionID}
		}
		r.logger.Error("Failed to get remittance record by driver transaction ID",
			"driver_transaction_id", driverTransactionID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get remittance record by driver transaction ID: %w", err)
	}

	return rec, nil
}

// GetRetryable retrieves a batch of partial records ordered by creation time.
// This is used by the retry poller to re-drive failed steps in FIFO order.
func (r *RemittanceRepository) GetRetryable(ctx context.Context, limit int) ([]*remittance.Record, error) {
	query := `
		SELECT id, driver_transaction_id, driver_id, actor, net_amount, vendor_transaction_id, counterpart_explicit, order_id, signature_url, signature_path, status, steps, attempts, correlation_id, created_at, last_attempt_at
		FROM remittance_records
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, shared.RemittanceStatusPartial, limit)
	if err != nil {
		r.logger.Error("Failed to get retryable remittance records", "error", err)
		return nil, fmt.Errorf("failed to get retryable remittance records: %w", err)
	}
	defer rows.Close()

	var records []*remittance.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan remittance record", "error", err)
			return nil, fmt.Errorf("failed to scan remittance record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over remittance records", "error", err)
		return nil, fmt.Errorf("error iterating over remittance records: %w", err)
	}

	return records, nil
}

// scanRecord reads one row into a record, decoding the steps jsonb column
func (r *RemittanceRepository) scanRecord(row pgx.Row) (*remittance.Record, error) {
	var rec remittance.Record
	var steps []byte

	err := row.Scan(
		&rec.ID,
		&rec.DriverTransactionID,
		&rec.DriverID,
		&rec.Actor,
		&rec.NetAmount,
		&rec.VendorTransactionID,
		&rec.CounterpartExplicit,
		&rec.OrderID,
		&rec.SignatureURL,
		&rec.SignaturePath,
		&rec.Status,
		&steps,
		&rec.Attempts,
		&rec.CorrelationID,
		&rec.CreatedAt,
		&rec.LastAttemptAt,
	)
	if err != nil {
		return nil, err
	}

	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &rec.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal remittance steps: %w", err)
		}
	}

	return &rec, nil
}
