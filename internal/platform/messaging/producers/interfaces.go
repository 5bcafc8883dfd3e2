package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes keyed JSON messages to a primary topic. The API
// gateway uses it to emit order lifecycle events.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher routes unprocessable messages to a dead letter topic so
// the main consumer can keep moving.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
