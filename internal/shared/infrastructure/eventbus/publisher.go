package eventbus

import (
	"context"
	"time"
)

// Envelope is a single event ready to be handed to the broker.
type Envelope struct {
	MessageID     string
	RoutingKey    string
	CorrelationID string
	OccurredAt    time.Time
	Payload       []byte
}

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, env Envelope) error

	// Close closes the publisher connection.
	Close() error
}
