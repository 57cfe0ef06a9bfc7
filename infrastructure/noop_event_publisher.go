package infrastructure

import (
	"context"

	"bumpbot/events"
)

// NoopEventPublisher stands in for the NATS exporter when no servers are configured
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// HandleEvent discards the event
func (n *NoopEventPublisher) HandleEvent(context.Context, events.Event) {}
