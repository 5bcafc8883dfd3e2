package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/order_processor/service"
)

type FailureRecorderImpl struct {
	orderRepo order.Repository
	logger    *slog.Logger
}

func NewFailureRecorder(orderRepo order.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// RecordFailure stamps a business-rule rejection onto the order document so
// the outcome is queryable instead of lost with the acknowledged event.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, orderID string, reason shared.FailureReason) error {
	r.logger.Info("Recording order processing failure", "order_id", orderID, "reason", string(reason))

	if err := r.orderRepo.RecordProcessingError(ctx, orderID, string(reason)); err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			r.logger.Warn("Order disappeared before its failure could be recorded", "order_id", orderID)
			return nil
		}
		return fmt.Errorf("failed to record processing error on order %s: %w", orderID, err)
	}

	r.logger.Info("Order processing failure recorded", "order_id", orderID, "reason", string(reason))
	return nil
}
