package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/courierhub-platform/internal/domain/shared"
	"github.com/courierhub-platform/internal/order_processor/service"
	"github.com/courierhub-platform/internal/platform/messaging/producers"
)

// OrderEventHandler handles incoming order lifecycle messages from Kafka
type OrderEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewOrderEventHandler creates a new handler
func NewOrderEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *OrderEventHandler {
	return &OrderEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *OrderEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal order event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received order event for processing",
		"event_id", event.EventID.String(),
		"order_id", event.OrderID,
		"type", string(event.Type),
		"driver_id", event.DriverID,
	)

	if err := h.processingService.ProcessOrderEvent(ctx, &event); err != nil {
		logger.Error("Failed to process order event",
			"event_id", event.EventID.String(),
			"order_id", event.OrderID,
			"error", err,
		)
		return fmt.Errorf("processing order event %s failed: %w", event.EventID.String(), err)
	}

	logger.Info("Successfully processed order event", "event_id", event.EventID.String())
	return nil // Success, commit offset
}
