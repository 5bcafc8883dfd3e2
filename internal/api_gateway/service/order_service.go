package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/courierhub-platform/internal/domain/order"
	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/domain/vendor"
	"github.com/courierhub-platform/internal/platform/messaging/producers"
)

// OrderServiceImpl implements the OrderService interface
type OrderServiceImpl struct {
	orderRepo  order.Repository
	vendorRepo vendor.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(logger *slog.Logger, orderRepo order.Repository, vendorRepo vendor.Repository, producer producers.MessagePublisher) OrderService {
	return &OrderServiceImpl{
		orderRepo:  orderRepo,
		vendorRepo: vendorRepo,
		producer:   producer,
		logger:     logger,
	}
}

// CreateOrder writes a pending cash-on-delivery order after verifying the
// vendor exists and is approved to trade
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, vendorID uuid.UUID, customerName, customerAddress string, codAmount float64, correlationID string) (*order.Order, error) {
	v, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !v.IsApproved() {
		return nil, vendor.ErrNotApproved
	}

	o, err := order.NewOrder(vendorID.String(), customerName, customerAddress, codAmount)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		"order_id", o.ID,
		"vendor_id", o.VendorID,
		"cod_amount", o.CODAmount,
		"correlation_id", correlationID,
	)

	return o, nil
}

// GetOrderByID retrieves an order by its ID, returns ErrOrderNotFound if not found
func (s *OrderServiceImpl) GetOrderByID(ctx context.Context, id string) (*order.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// AssignOrder publishes an ASSIGNED lifecycle event for the order. Driver
// eligibility and order state are validated by the processor, not here; the
// gateway only guarantees the order exists before accepting the request.
func (s *OrderServiceImpl) AssignOrder(ctx context.Context, orderID string, driverID uuid.UUID, correlationID string) (*shared.OrderEvent, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	event := &shared.OrderEvent{
		EventID:       uuid.New(),
		Type:          shared.OrderEventAssigned,
		OrderID:       o.ID,
		DriverID:      driverID.String(),
		VendorID:      o.VendorID,
		CODAmount:     o.CODAmount,
		CorrelationID: correlationID,
		OccurredAt:    shared.TimestampNow(),
	}

	return s.publish(ctx, event)
}

// ConfirmDelivery publishes a DELIVERED lifecycle event for the order on
// behalf of the acting driver
func (s *OrderServiceImpl) ConfirmDelivery(ctx context.Context, orderID, driverID, correlationID string) (*shared.OrderEvent, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	event := &shared.OrderEvent{
		EventID:       uuid.New(),
		Type:          shared.OrderEventDelivered,
		OrderID:       o.ID,
		DriverID:      driverID,
		VendorID:      o.VendorID,
		CODAmount:     o.CODAmount,
		CorrelationID: correlationID,
		OccurredAt:    shared.TimestampNow(),
	}

	return s.publish(ctx, event)
}

// publish sends the event keyed by order id, so all events for one order land
// on the same partition and are consumed in publish order
func (s *OrderServiceImpl) publish(ctx context.Context, event *shared.OrderEvent) (*shared.OrderEvent, error) {
	if err := s.producer.Publish(ctx, event.OrderID, event); err != nil {
		s.logger.Error("Failed to publish order event",
			"order_id", event.OrderID,
			"event_type", string(event.Type),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Order event published",
		"event_id", event.EventID,
		"order_id", event.OrderID,
		"event_type", string(event.Type),
		"driver_id", event.DriverID,
	)

	return event, nil
}

// ListOrdersByVendor retrieves a paginated list of one vendor's orders
// together with the total count
func (s *OrderServiceImpl) ListOrdersByVendor(ctx context.Context, vendorID string, page, perPage int) ([]*order.Order, int64, error) {
	offset := (page - 1) * perPage

	orders, err := s.orderRepo.ListByVendorID(ctx, vendorID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.CountByVendorID(ctx, vendorID)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
