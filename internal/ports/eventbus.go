// Package ports defines the EventBus interface for event-driven communication.
// The event bus decouples event producers (services) from consumers (UI, logging).
package ports

import (
	"github.com/ytaudio/tubetune/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Multiple subscribers can listen to the same event, and subscribers don't
// know about publishers. Implementations must be thread-safe as events may be
// published and subscribed from multiple goroutines simultaneously.
type EventBus interface {
	// Publish delivers an event to all subscribers of its type.
	// Handlers should process events quickly or dispatch to a background
	// goroutine if long processing is needed.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// The same handler can be registered multiple times, resulting in
	// multiple calls. Returns a SubscriptionID for Unsubscribe.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler.
	// Unknown or already removed ids are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives every event regardless
	// of type. Useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether any subscription exists for the type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and clears all subscriptions.
	Close() error
}
