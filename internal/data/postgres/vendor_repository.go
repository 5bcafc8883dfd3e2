package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/vendor"
	"github.com/courierhub-platform/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VendorRepository implements the vendor.Repository interface for PostgreSQL
type VendorRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewVendorRepository creates a new PostgreSQL vendor repository
func NewVendorRepository(logger *slog.Logger, db *persistence.PostgresDB) vendor.Repository {
	return &VendorRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *VendorRepository) WithTx(tx pgx.Tx) vendor.Repository {
	return &VendorRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new vendor in pending approval status
func (r *VendorRepository) Create(ctx context.Context, v *vendor.Vendor) error {
	query := `
		INSERT INTO vendors (id, name, contact_email, status, commission_rate, reject_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		v.ID,
		v.Name,
		v.ContactEmail,
		v.Status,
		v.CommissionRate,
		v.RejectReason,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create vendor", "error", err)
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	return nil
}

// GetByID retrieves a vendor by its ID
func (r *VendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	query := `
		SELECT id, name, contact_email, status, commission_rate, reject_reason, created_at, updated_at
		FROM vendors
		WHERE id = $1
	`

	var v vendor.Vendor
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Name,
		&v.ContactEmail,
		&v.Status,
		&v.CommissionRate,
		&v.RejectReason,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vendor.ErrVendorNotFound{VendorID: id}
		}
		r.logger.Error("Failed to get vendor", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	return &v, nil
}

// GetByEmail retrieves a vendor by contact email
func (r *VendorRepository) GetByEmail(ctx context.Context, contactEmail string) (*vendor.Vendor, error) {
	query := `
		SELECT id, name, contact_email, status, commission_rate, reject_reason, created_at, updated_at
		FROM vendors
		WHERE contact_email = $1
	`

	var v vendor.Vendor
	err := r.querier.QueryRow(ctx, query, contactEmail).Scan(
		&v.ID,
		&v.Name,
		&v.ContactEmail,
		&v.Status,
		&v.CommissionRate,
		&v.RejectReason,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil, nil when no vendor is found with the given email
		}
		r.logger.Error("Failed to get vendor by email", "contactEmail", contactEmail, "error", err)
		return nil, fmt.Errorf("failed to get vendor by email: %w", err)
	}

	return &v, nil
}

// List retrieves vendors ordered by creation time, newest first
func (r *VendorRepository) List(ctx context.Context, limit, offset int) ([]*vendor.Vendor, error) {
	query := `
		SELECT id, name, contact_email, status, commission_rate, reject_reason, created_at, updated_at
		FROM vendors
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list vendors", "error", err)
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*vendor.Vendor
	for rows.Next() {
		var v vendor.Vendor
		err := rows.Scan(
			&v.ID,
			&v.Name,
			&v.ContactEmail,
			&v.Status,
			&v.CommissionRate,
			&v.RejectReason,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan vendor", "error", err)
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, &v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over vendors", "error", err)
		return nil, fmt.Errorf("error iterating over vendors: %w", err)
	}

	return vendors, nil
}

// Count returns the total number of vendors
func (r *VendorRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM vendors`

	var count int64
	if err := r.querier.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error("Failed to count vendors", "error", err)
		return 0, fmt.Errorf("failed to count vendors: %w", err)
	}

	return count, nil
}

// UpdateApproval persists an approve/reject decision with the optional reason.
// Returns ErrVendorNotFound if the vendor doesn't exist.
func (r *VendorRepository) UpdateApproval(ctx context.Context, id uuid.UUID, status vendor.Status, reason string) error {
	query := `
		UPDATE vendors
		SET status = $1, reject_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, reason, id)
	if err != nil {
		r.logger.Error("Failed to update vendor approval", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update vendor approval: %w", err)
	}

	if result.RowsAffected() == 0 {
		return vendor.ErrVendorNotFound{VendorID: id}
	}

	return nil
}
