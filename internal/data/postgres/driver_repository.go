// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the courier platform.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DriverRepository implements the driver.Repository interface for PostgreSQL
type DriverRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewDriverRepository creates a new PostgreSQL driver repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewDriverRepository(logger *slog.Logger, db *persistence.PostgresDB) driver.Repository {
	return &DriverRepository{
		querier: db.Pool(), // Initialize with the pool
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls. The returned repository will use the provided
// transaction for all database operations.
func (r *DriverRepository) WithTx(tx pgx.Tx) driver.Repository {
	return &DriverRepository{
		querier: tx, // Use the transaction
		logger:  r.logger,
	}
}

// Create stores a new driver in the database. If a driver with the same
// phone number already exists, a database constraint error will be returned.
func (r *DriverRepository) Create(ctx context.Context, d *driver.Driver) error {
	query := `
		INSERT INTO drivers (id, name, phone, status, cash_on_hand, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		d.ID,
		d.Name,
		d.Phone,
		d.Status,
		d.CashOnHand,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create driver", "error", err)
		return fmt.Errorf("failed to create driver: %w", err)
	}

	return nil
}

// GetByID retrieves a driver by its ID
func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*driver.Driver, error) {
	query := `
		SELECT id, name, phone, status, cash_on_hand, created_at, updated_at
		FROM drivers
		WHERE id = $1
	`

	var d driver.Driver
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Phone,
		&d.Status,
		&d.CashOnHand,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, driver.ErrDriverNotFound{DriverID: id}
		}
		r.logger.Error("Failed to get driver", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	return &d, nil
}

// GetByPhone retrieves a driver by phone number
func (r *DriverRepository) GetByPhone(ctx context.Context, phone string) (*driver.Driver, error) {
	query := `
		SELECT id, name, phone, status, cash_on_hand, created_at, updated_at
		FROM drivers
		WHERE phone = $1
	`

	var d driver.Driver
	err := r.querier.QueryRow(ctx, query, phone).Scan(
		&d.ID,
		&d.Name,
		&d.Phone,
		&d.Status,
		&d.CashOnHand,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil, nil when no driver is found with the given phone
		}
		r.logger.Error("Failed to get driver by phone", "phone", phone, "error", err)
		return nil, fmt.Errorf("failed to get driver by phone: %w", err)
	}

	return &d, nil
}

// List retrieves drivers ordered by creation time, newest first
func (r *DriverRepository) List(ctx context.Context, limit, offset int) ([]*driver.Driver, error) {
	query := `
		SELECT id, name, phone, status, cash_on_hand, created_at, updated_at
		FROM drivers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list drivers", "error", err)
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*driver.Driver
	for rows.Next() {
		var d driver.Driver
		err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Phone,
			&d.Status,
			&d.CashOnHand,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan driver", "error", err)
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, &d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over drivers", "error", err)
		return nil, fmt.Errorf("error iterating over drivers: %w", err)
	}

	return drivers, nil
}

// Count returns the total number of drivers
func (r *DriverRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM drivers`

	var count int64
	if err := r.querier.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error("Failed to count drivers", "error", err)
		return 0, fmt.Errorf("failed to count drivers: %w", err)
	}

	return count, nil
}

// UpdateStatus transitions a driver between active and suspended.
// Returns ErrDriverNotFound if the driver doesn't exist.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status driver.Status) error {
	query := `
		UPDATE drivers
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update driver status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update driver status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return driver.ErrDriverNotFound{DriverID: id}
	}

	return nil
}

// AdjustCashOnHand atomically applies a signed delta to the driver's cash on hand.
// The increment happens in the database, so concurrent settlements and remittances
// never overwrite each other.
func (r *DriverRepository) AdjustCashOnHand(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE drivers
		SET cash_on_hand = cash_on_hand + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, delta, id)
	if err != nil {
		r.logger.Error("Failed to adjust driver cash on hand", "id", id.String(), "error", err)
		return fmt.Errorf("failed to adjust driver cash on hand: %w", err)
	}

	if result.RowsAffected() == 0 {
		return driver.ErrDriverNotFound{DriverID: id}
	}

	return nil
}
