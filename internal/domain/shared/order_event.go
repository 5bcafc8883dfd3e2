package shared

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidOrderEventType = errors.New("invalid order event type")

// OrderEventType defines order lifecycle events that flow through Kafka
type OrderEventType string

const (
	OrderEventAssigned  OrderEventType = "ASSIGNED"
	OrderEventDelivered OrderEventType = "DELIVERED"
)

// OrderEvent defines a Kafka message for order lifecycle processing
type OrderEvent struct {
	EventID       uuid.UUID      `json:"event_id"`
	Type          OrderEventType `json:"type"`
	OrderID       string         `json:"order_id"`
	DriverID      string         `json:"driver_id"`
	VendorID      string         `json:"vendor_id"`
	CODAmount     float64        `json:"cod_amount"`
	CorrelationID string         `json:"correlation_id"`
	OccurredAt    Timestamp      `json:"occurred_at"`
}
