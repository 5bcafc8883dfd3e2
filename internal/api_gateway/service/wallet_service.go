package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/domain/wallet"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	walletRepo wallet.Repository
	db         TxRunner
	logger     *slog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(logger *slog.Logger, walletRepo wallet.Repository, db TxRunner) WalletService {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		db:         db,
		logger:     logger,
	}
}

// CreateWallet creates an empty wallet, checking that the user has none yet
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, userID, currency string) (*wallet.Wallet, error) {
	existing, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, wallet.ErrDuplicateWallet{UserID: userID}
	}

	w, err := wallet.NewWallet(userID, currency)
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

// GetWalletByID retrieves a wallet by its ID, returns ErrWalletNotFound if not found
func (s *WalletServiceImpl) GetWalletByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	return s.walletRepo.GetByID(ctx, id)
}

// Adjust applies a signed balance delta and appends the audit record inside
// one database transaction. Either both writes land or neither does, so the
// adjustment trail always accounts for the full balance.
func (s *WalletServiceImpl) Adjust(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, reason, actorID string) (*wallet.Adjustment, error) {
	adj, err := wallet.NewAdjustment(walletID, amount, reason, actorID)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.walletRepo.WithTx(tx)
		if err := repo.AdjustBalance(ctx, walletID, amount); err != nil {
			return err
		}
		return repo.AppendAdjustment(ctx, adj)
	})
	if err != nil {
		s.logger.Error("Failed to adjust wallet balance",
			"wallet_id", walletID,
			"amount", amount.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Wallet balance adjusted",
		"wallet_id", walletID,
		"amount", amount.String(),
		"adjustment_id", adj.ID,
		"actor_id", actorID,
	)

	return adj, nil
}

// ListAdjustments retrieves the paginated audit trail for a wallet together
// with the total count
func (s *WalletServiceImpl) ListAdjustments(ctx context.Context, walletID uuid.UUID, page, perPage int) ([]*wallet.Adjustment, int64, error) {
	offset := (page - 1) * perPage

	adjustments, err := s.walletRepo.ListAdjustments(ctx, walletID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.walletRepo.CountAdjustments(ctx, walletID)
	if err != nil {
		return nil, 0, err
	}

	return adjustments, total, nil
}
