package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhub-platform/internal/domain/driver"
	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/domain/vendor"
)

type ProcessingServiceImpl struct {
	orders          order.Repository
	drivers         driver.Repository
	verifier        DriverVerifier
	settlements     SettlementBuilder
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewProcessingService(
	orders order.Repository,
	drivers driver.Repository,
	verifier DriverVerifier,
	settlements SettlementBuilder,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		orders:          orders,
		drivers:         drivers,
		verifier:        verifier,
		settlements:     settlements,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

// ProcessOrderEvent handles the core logic for one order lifecycle event.
// Business-rule rejections are recorded on the order document and acknowledged;
// infrastructure errors are returned so the consumer redelivers.
func (s *ProcessingServiceImpl) ProcessOrderEvent(ctx context.Context, event *shared.OrderEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Processing order event",
		"event_id", event.EventID.String(),
		"type", string(event.Type),
		"order_id", event.OrderID,
	)

	o, err := s.orders.GetByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			// Nothing to process and no document to record the failure on
			logger.Error("Order event references a missing order",
				"event_id", event.EventID.String(),
				"order_id", event.OrderID,
			)
			return nil
		}
		return fmt.Errorf("failed to load order %s: %w", event.OrderID, err)
	}

	switch event.Type {
	case shared.OrderEventAssigned:
		return s.processAssigned(ctx, logger, event, o)
	case shared.OrderEventDelivered:
		return s.processDelivered(ctx, logger, event, o)
	default:
		logger.Error("Unknown order event type",
			"event_id", event.EventID.String(),
			"type", string(event.Type),
		)
		return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonUnknownError)
	}
}

func (s *ProcessingServiceImpl) processAssigned(ctx context.Context, logger *slog.Logger, event *shared.OrderEvent, o *order.Order) error {
	if o.Status == shared.OrderStatusAssigned && o.DriverID == event.DriverID {
		logger.Info("Order already assigned to this driver, skipping", "order_id", o.ID)
		return nil
	}

	if _, err := s.verifier.VerifyEligible(ctx, event.DriverID); err != nil {
		if errors.Is(err, driver.ErrDriverNotFound{}) {
			logger.Warn("Rejecting assignment to unknown driver", "order_id", o.ID, "driver_id", event.DriverID)
			return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonDriverNotFound)
		}
		if errors.Is(err, driver.ErrNotActive) {
			logger.Warn("Rejecting assignment to inactive driver", "order_id", o.ID, "driver_id", event.DriverID)
			return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonDriverNotActive)
		}
		return fmt.Errorf("failed to verify driver %s: %w", event.DriverID, err)
	}

	if !o.CanAssign() {
		logger.Warn("Rejecting assignment of non-pending order", "order_id", o.ID, "status", string(o.Status))
		return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonOrderNotPending)
	}

	if err := s.orders.MarkAssigned(ctx, o.ID, event.DriverID, shared.TimestampNow()); err != nil {
		return fmt.Errorf("failed to mark order %s assigned: %w", o.ID, err)
	}

	logger.Info("Order assigned", "order_id", o.ID, "driver_id", event.DriverID)
	return nil
}

func (s *ProcessingServiceImpl) processDelivered(ctx context.Context, logger *slog.Logger, event *shared.OrderEvent, o *order.Order) error {
	// The settlement pair is the idempotency anchor for delivery processing
	settled, err := s.settlements.HasPair(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("failed to check settlement pair for order %s: %w", o.ID, err)
	}
	if settled {
		if o.Status != shared.OrderStatusDelivered {
			// A previous delivery wrote the pair but not the order update;
			// finish the remaining steps on this redelivery
			logger.Info("Resuming partially settled delivery", "order_id", o.ID)
			return s.finishDelivery(ctx, logger, event, o)
		}
		logger.Info("Order already settled, skipping", "order_id", o.ID)
		return nil
	}

	if err := o.CanDeliverBy(event.DriverID); err != nil {
		logger.Warn("Rejecting delivery confirmation",
			"order_id", o.ID,
			"driver_id", event.DriverID,
			"status", string(o.Status),
			"error", err,
		)
		return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonOrderNotAssigned)
	}

	if err := s.settlements.Settle(ctx, o, event.CorrelationID); err != nil {
		if errors.Is(err, vendor.ErrVendorNotFound{}) {
			logger.Error("Delivered order references a missing vendor", "order_id", o.ID, "vendor_id", o.VendorID)
			return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonVendorNotFound)
		}
		return fmt.Errorf("failed to settle order %s: %w", o.ID, err)
	}

	return s.finishDelivery(ctx, logger, event, o)
}

// finishDelivery marks the order delivered and credits the collected cash to
// the driver. It runs after the settlement pair exists, so a redelivery that
// finds the pair can pick up from here.
func (s *ProcessingServiceImpl) finishDelivery(ctx context.Context, logger *slog.Logger, event *shared.OrderEvent, o *order.Order) error {
	driverID, err := uuid.Parse(event.DriverID)
	if err != nil {
		logger.Error("Delivery event carries an unparseable driver id",
			"order_id", o.ID,
			"driver_id", event.DriverID,
			"error", err,
		)
		return s.recordAndAck(ctx, logger, o.ID, shared.FailureReasonUnknownError)
	}

	if err := s.orders.MarkDelivered(ctx, o.ID, shared.TimestampNow()); err != nil {
		return fmt.Errorf("failed to mark order %s delivered: %w", o.ID, err)
	}

	if err := s.drivers.AdjustCashOnHand(ctx, driverID, decimal.NewFromFloat(o.CODAmount)); err != nil {
		return fmt.Errorf("failed to increment cash on hand for driver %s: %w", event.DriverID, err)
	}

	logger.Info("Order delivered and settled",
		"order_id", o.ID,
		"driver_id", event.DriverID,
		"cod_amount", o.CODAmount,
	)
	return nil
}

// recordAndAck persists a business failure on the order and acknowledges the
// event; the rejection stays visible on the document instead of blocking the
// partition.
func (s *ProcessingServiceImpl) recordAndAck(ctx context.Context, logger *slog.Logger, orderID string, reason shared.FailureReason) error {
	if err := s.failureRecorder.RecordFailure(ctx, orderID, reason); err != nil {
		logger.Error("Failed to record order processing failure",
			"order_id", orderID,
			"reason", string(reason),
			"error", err,
		)
	}
	return nil
}
