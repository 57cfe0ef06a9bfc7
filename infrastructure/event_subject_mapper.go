package infrastructure

import (
	"fmt"

	"bumpbot/events"
)

const (
	subjectPrefix = "bumpbot"

	// EventStreamName is the JetStream stream holding exported domain events
	EventStreamName = "bumpbot_events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject, e.g.
// "bumpbot.bump.detected"
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.subjectFor(event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for _, t := range events.AllEventTypes() {
		if m.subjectFor(t) == subject {
			return t
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	types := events.AllEventTypes()
	subjects := make([]string, 0, len(types))
	for _, t := range types {
		subjects = append(subjects, m.subjectFor(t))
	}
	return subjects
}

func (m *EventSubjectMapper) subjectFor(t events.EventType) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, t)
}
