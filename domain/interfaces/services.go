package interfaces

import (
	"context"
	"time"

	"bumpbot/domain/entities"
	"bumpbot/events"
)

// EventPublisher fans domain events out to subscribers
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or is running.
	Stop() bool
}

// Scheduler runs callbacks after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RewardSender pays out a bump reward
type RewardSender interface {
	Dispatch(ctx context.Context, member entities.Member, gameUsername, reason string) entities.RewardReport
}

// RoleOfferer starts a timed role offer for a member
type RoleOfferer interface {
	Offer(ctx context.Context, member entities.Member, guildID, channelID, gameUsername string) (entities.PendingOffer, error)
}
