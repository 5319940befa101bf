// Package events carries domain events between modules without coupling the
// publisher to its subscribers. The lifecycle service and the idle sweep
// publish here; observers such as the audit trail subscribe.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type, e.g. "leads.lead.claimed".
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent holds the fields shared by all events. Embed it and implement
// EventName on the concrete type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt reports when the event happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events it has subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribed handlers.
type Bus interface {
	// Publish dispatches the event to its handlers asynchronously.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches the event inline and returns the first
	// handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name, as returned by
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
