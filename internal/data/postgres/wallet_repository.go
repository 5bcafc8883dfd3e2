package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/wallet"
	"github.com/courierhub-platform/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.Repository {
	return &WalletRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
// This ensures the balance increment and its audit record commit together.
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new wallet in the database
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, currency, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.Currency,
		w.Balance,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create wallet", "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// GetByID retrieves a wallet by its ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, currency, balance, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.UserID,
		&w.Currency,
		&w.Balance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletID: id}
		}
		r.logger.Error("Failed to get wallet", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &w, nil
}

// GetByUserID retrieves a wallet by its owning user
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, currency, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&w.ID,
		&w.UserID,
		&w.Currency,
		&w.Balance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil, nil when the user has no wallet
		}
		r.logger.Error("Failed to get wallet by user ID", "userID", userID, "error", err)
		return nil, fmt.Errorf("failed to get wallet by user ID: %w", err)
	}

	return &w, nil
}

// AdjustBalance atomically applies a signed delta to the wallet balance.
// The increment happens in the database, never as read-modify-write, so
// concurrent adjustments cannot lose updates.
func (r *WalletRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, delta, id)
	if err != nil {
		r.logger.Error("Failed to adjust wallet balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to adjust wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound{WalletID: id}
	}

	return nil
}

// AppendAdjustment inserts the audit record for one balance change and
// sets adj.ID from the generated key
func (r *WalletRepository) AppendAdjustment(ctx context.Context, adj *wallet.Adjustment) error {
	query := `
		INSERT INTO wallet_adjustments (wallet_id, amount, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		adj.WalletID,
		adj.Amount,
		adj.Reason,
		adj.ActorID,
		adj.CreatedAt,
	).Scan(&adj.ID)

	if err != nil {
		r.logger.Error("Failed to append wallet adjustment",
			"wallet_id", adj.WalletID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to append wallet adjustment: %w", err)
	}

	return nil
}

// ListAdjustments retrieves the audit trail for a wallet, newest first
func (r *WalletRepository) ListAdjustments(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*wallet.Adjustment, error) {
	query := `
		SELECT id, wallet_id, amount, reason, actor_id, created_at
		FROM wallet_adjustments
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list wallet adjustments", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list wallet adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []*wallet.Adjustment
	for rows.Next() {
		var adj wallet.Adjustment
		err := rows.Scan(
			&adj.ID,
			&adj.WalletID,
			&adj.Amount,
			&adj.Reason,
			&adj.ActorID,
			&adj.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan wallet adjustment", "error", err)
			return nil, fmt.Errorf("failed to scan wallet adjustment: %w", err)
		}
		adjustments = append(adjustments, &adj)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over wallet adjustments", "error", err)
		return nil, fmt.Errorf("error iterating over wallet adjustments: %w", err)
	}

	return adjustments, nil
}

// CountAdjustments returns the number of audit records for a wallet
func (r *WalletRepository) CountAdjustments(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM wallet_adjustments WHERE wallet_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, walletID).Scan(&count); err != nil {
		r.logger.Error("Failed to count wallet adjustments", "wallet_id", walletID.String(), "error", err)
		return 0, fmt.Errorf("failed to count wallet adjustments: %w", err)
	}

	return count, nil
}
