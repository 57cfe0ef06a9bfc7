package services

import (
	"context"
	"fmt"
	"time"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/interfaces"
	"bumpbot/events"

	log "github.com/sirupsen/logrus"
)

// DefaultPromptLifetime is how long the username prompt stays in the channel
const DefaultPromptLifetime = 2 * time.Minute

// BumpService runs the lookup-or-prompt workflow for an attributed bump
type BumpService struct {
	store          interfaces.IdentityStore
	rewards        interfaces.RewardSender
	notifier       interfaces.Notifier
	janitor        *MessageJanitor
	publisher      interfaces.EventPublisher
	channelID      string
	promptLifetime time.Duration
	now            func() time.Time
}

func NewBumpService(
	store interfaces.IdentityStore,
	rewards interfaces.RewardSender,
	notifier interfaces.Notifier,
	janitor *MessageJanitor,
	publisher interfaces.EventPublisher,
	channelID string,
	promptLifetime time.Duration,
) *BumpService {
	if promptLifetime <= 0 {
		promptLifetime = DefaultPromptLifetime
	}
	return &BumpService{
		store:          store,
		rewards:        rewards,
		notifier:       notifier,
		janitor:        janitor,
		publisher:      publisher,
		channelID:      channelID,
		promptLifetime: promptLifetime,
		now:            time.Now,
	}
}

// HandleBump rewards member when a game username is on file, otherwise asks
// them to register one. Unregistered members are prompted on every bump.
func (s *BumpService) HandleBump(ctx context.Context, member entities.Member, source events.BumpSource, sourceID string) error {
	record, err := s.store.FindByExternalID(ctx, member.ID)
	if err != nil {
		return fmt.Errorf("failed to look up bumper %s: %w", member.ID, err)
	}
	registered := record.HasGameUsername()

	log.WithFields(log.Fields{
		"discordID":  member.ID,
		"tag":        member.Tag,
		"source":     source,
		"registered": registered,
	}).Info("Processing bump")

	s.publisher.Emit(ctx, events.BumpDetectedEvent{
		MessageID:  sourceID,
		ChannelID:  s.channelID,
		DiscordID:  member.ID,
		Source:     source,
		Registered: registered,
		DetectedAt: s.now(),
	})

	if registered {
		s.rewards.Dispatch(ctx, member, record.GameUsername, "bump")
		return nil
	}

	prompt, err := s.notifier.PromptForUsername(ctx, s.channelID, member)
	if err != nil {
		return domainerrors.NewPlatformError("prompt for username", err)
	}
	s.janitor.DeleteAfter(prompt, s.promptLifetime)
	return nil
}
