package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBumpDetected      EventType = "bump.detected"
	EventTypeBumpUnattributed  EventType = "bump.unattributed"
	EventTypeMemberRegistered  EventType = "member.registered"
	EventTypeRewardDispatched  EventType = "reward.dispatched"
	EventTypeRoleOfferResolved EventType = "role_offer.resolved"
)

// AllEventTypes lists every event type the bot emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBumpDetected,
		EventTypeBumpUnattributed,
		EventTypeMemberRegistered,
		EventTypeRewardDispatched,
		EventTypeRoleOfferResolved,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BumpSource tells how a bump was attributed
type BumpSource string

const (
	BumpSourceDirect     BumpSource = "direct"
	BumpSourceCorrelated BumpSource = "correlated"
)

// BumpDetectedEvent is a bump attributed to a member
type BumpDetectedEvent struct {
	MessageID  string     `json:"message_id"`
	ChannelID  string     `json:"channel_id"`
	ServiceID  string     `json:"service_id,omitempty"`
	DiscordID  string     `json:"discord_id"`
	Source     BumpSource `json:"source"`
	Registered bool       `json:"registered"`
	DetectedAt time.Time  `json:"detected_at"`
}

func (e BumpDetectedEvent) Type() EventType {
	return EventTypeBumpDetected
}

// BumpUnattributedEvent is a confirmed bump with no invocation in the history window
type BumpUnattributedEvent struct {
	MessageID  string    `json:"message_id"`
	ChannelID  string    `json:"channel_id"`
	ServiceID  string    `json:"service_id"`
	DetectedAt time.Time `json:"detected_at"`
}

func (e BumpUnattributedEvent) Type() EventType {
	return EventTypeBumpUnattributed
}

// MemberRegisteredEvent is a created or updated identity record
type MemberRegisteredEvent struct {
	DiscordID    string `json:"discord_id"`
	GameUsername string `json:"game_username"`
	Updated      bool   `json:"updated"`
}

func (e MemberRegisteredEvent) Type() EventType {
	return EventTypeMemberRegistered
}

// RewardDispatchedEvent is an emitted reward, successful or partial
type RewardDispatchedEvent struct {
	DiscordID    string    `json:"discord_id"`
	GameUsername string    `json:"game_username"`
	Announced    bool      `json:"announced"`
	CommandsSent int       `json:"commands_sent"`
	Reason       string    `json:"reason"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

func (e RewardDispatchedEvent) Type() EventType {
	return EventTypeRewardDispatched
}

// RoleOfferResolvedEvent is a role offer reaching a terminal state
type RoleOfferResolvedEvent struct {
	OfferID   string        `json:"offer_id"`
	DiscordID string        `json:"discord_id"`
	GuildID   string        `json:"guild_id"`
	Outcome   string        `json:"outcome"`
	OpenFor   time.Duration `json:"open_for_ns"`
}

func (e RoleOfferResolvedEvent) Type() EventType {
	return EventTypeRoleOfferResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers.
// Handlers run asynchronously and a panicking handler is logged and dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	// Handlers outlive the request that produced the event
	ctx = context.WithoutCancel(ctx)

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
