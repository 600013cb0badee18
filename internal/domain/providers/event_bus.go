package providers

import (
	"context"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// catalog change events.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ProductEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ProductEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelProductUpdates carries all catalog change events.
const EventChannelProductUpdates = "products:updates"
