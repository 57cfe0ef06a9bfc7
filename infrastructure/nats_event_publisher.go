package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bumpbot/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	sourceService  = "bumpbot"
	streamMaxAge   = 7 * 24 * time.Hour
	publishTimeout = 5 * time.Second
)

// EventEnvelope wraps every exported domain event
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// MessagePublisher is the transport the event publisher writes to
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PublishObserver is told about every successfully exported event
type PublishObserver interface {
	RecordNATSMessagePublished(eventType string)
}

// NATSEventPublisher exports domain events to JetStream
type NATSEventPublisher struct {
	transport     MessagePublisher
	subjectMapper *EventSubjectMapper
	observer      PublishObserver
	now           func() time.Time
}

// NewNATSEventPublisher creates a new NATS event publisher. observer may be nil.
func NewNATSEventPublisher(transport MessagePublisher, subjectMapper *EventSubjectMapper, observer PublishObserver) *NATSEventPublisher {
	return &NATSEventPublisher{
		transport:     transport,
		subjectMapper: subjectMapper,
		observer:      observer,
		now:           time.Now,
	}
}

// Publish wraps event in an envelope and publishes it on its subject
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     p.now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.transport.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.observer != nil {
		p.observer.RecordNATSMessagePublished(envelope.EventType)
	}
	log.WithFields(log.Fields{
		"eventType": envelope.EventType,
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published domain event to NATS")
	return nil
}

// HandleEvent is an events.Handler that exports each event, logging failures
func (p *NATSEventPublisher) HandleEvent(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Warn("Failed to export domain event")
	}
}

// EnsureEventStream creates the bumpbot_events stream covering every subject
func EnsureEventStream(client *NATSClient, mapper *EventSubjectMapper) error {
	return client.EnsureStream(EventStreamName, mapper.GetAllSubjects(), streamMaxAge)
}
