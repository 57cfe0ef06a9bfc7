package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/interfaces"
	"bumpbot/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrAlreadyHasRole is returned by Offer when the member already holds the role
var ErrAlreadyHasRole = errors.New("member already has the bump role")

const offerExpiryTimeout = 30 * time.Second

// RoleOfferConfig controls the role offer state machine
type RoleOfferConfig struct {
	RoleID       string
	Timeout      time.Duration
	CleanupDelay time.Duration
}

// RoleOfferService drives role offers from OFFERED to one of the terminal
// outcomes. The registry entry is removed before any side effect runs, so
// concurrent confirm, decline and expiry resolve an offer exactly once.
type RoleOfferService struct {
	registry  *OfferRegistry
	platform  interfaces.ChatPlatform
	notifier  interfaces.Notifier
	rewards   interfaces.RewardSender
	janitor   *MessageJanitor
	publisher interfaces.EventPublisher
	config    RoleOfferConfig
	now       func() time.Time
	newID     func() string
}

func NewRoleOfferService(
	registry *OfferRegistry,
	platform interfaces.ChatPlatform,
	notifier interfaces.Notifier,
	rewards interfaces.RewardSender,
	janitor *MessageJanitor,
	publisher interfaces.EventPublisher,
	config RoleOfferConfig,
) *RoleOfferService {
	return &RoleOfferService{
		registry:  registry,
		platform:  platform,
		notifier:  notifier,
		rewards:   rewards,
		janitor:   janitor,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Offer posts a role prompt and arms its deadline. It fails with
// ErrAlreadyHasRole when the member holds the role and with ErrOfferPending
// when an offer is already live, in which case the live offer is updated to
// carry gameUsername.
func (s *RoleOfferService) Offer(ctx context.Context, member entities.Member, guildID, channelID, gameUsername string) (entities.PendingOffer, error) {
	hasRole, err := s.platform.HasRole(ctx, guildID, member.ID, s.config.RoleID)
	if err != nil {
		return entities.PendingOffer{}, domainerrors.NewPlatformError("check role", err)
	}
	if hasRole {
		return entities.PendingOffer{}, ErrAlreadyHasRole
	}

	now := s.now()
	offer := entities.PendingOffer{
		ID:           s.newID(),
		Member:       member,
		GuildID:      guildID,
		ChannelID:    channelID,
		GameUsername: gameUsername,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.config.Timeout),
	}

	if err := s.registry.Put(offer, s.config.Timeout, s.expire); err != nil {
		if errors.Is(err, ErrOfferPending) {
			s.registry.Refresh(member.ID, gameUsername)
		}
		return entities.PendingOffer{}, err
	}

	prompt, err := s.notifier.SendRoleOffer(ctx, channelID, offer)
	if err != nil {
		s.registry.Claim(member.ID, offer.ID)
		return entities.PendingOffer{}, domainerrors.NewPlatformError("send role offer", err)
	}
	s.registry.AttachPrompt(member.ID, offer.ID, prompt)
	offer.Prompt = prompt

	log.WithFields(log.Fields{
		"discordID": member.ID,
		"offerID":   offer.ID,
		"expiresAt": offer.ExpiresAt,
	}).Info("Role offer posted")

	return offer, nil
}

// Claim takes the member's live offer out of the registry. An empty offerID
// matches any live offer of the member.
func (s *RoleOfferService) Claim(memberID, offerID string) (entities.PendingOffer, bool) {
	return s.registry.Claim(memberID, offerID)
}

// Complete resolves a claimed offer with the member's explicit choice
func (s *RoleOfferService) Complete(ctx context.Context, offer entities.PendingOffer, choice entities.OfferChoice) entities.OfferOutcome {
	outcome := entities.OfferDeclined
	if choice == entities.OfferChoiceConfirm {
		outcome = entities.OfferConfirmed
		if err := s.grantRole(ctx, offer); err != nil {
			log.WithFields(log.Fields{
				"discordID": offer.Member.ID,
				"roleID":    s.config.RoleID,
				"error":     err,
			}).Error("Failed to assign bump role")
			outcome = entities.OfferGrantFailed
		}
	}

	s.finish(ctx, offer, outcome)
	return outcome
}

// PendingCount returns the number of live offers
func (s *RoleOfferService) PendingCount() int {
	return s.registry.Len()
}

// Close drops every live offer. Their rewards are not paid out.
func (s *RoleOfferService) Close() {
	dropped := s.registry.Close()
	if len(dropped) > 0 {
		log.WithField("count", len(dropped)).Warn("Dropped pending role offers on shutdown")
	}
}

func (s *RoleOfferService) expire(offer entities.PendingOffer) {
	ctx, cancel := context.WithTimeout(context.Background(), offerExpiryTimeout)
	defer cancel()
	s.finish(ctx, offer, entities.OfferTimedOut)
}

// grantRole adds the role unless the member already has it
func (s *RoleOfferService) grantRole(ctx context.Context, offer entities.PendingOffer) error {
	hasRole, err := s.platform.HasRole(ctx, offer.GuildID, offer.Member.ID, s.config.RoleID)
	if err != nil {
		return domainerrors.NewPlatformError("check role", err)
	}
	if hasRole {
		log.WithField("discordID", offer.Member.ID).Info("Member already has bump role")
		return nil
	}
	if err := s.platform.AddRole(ctx, offer.GuildID, offer.Member.ID, s.config.RoleID); err != nil {
		return domainerrors.NewPlatformError("add role", err)
	}
	return nil
}

func (s *RoleOfferService) finish(ctx context.Context, offer entities.PendingOffer, outcome entities.OfferOutcome) {
	if err := s.notifier.ShowOfferOutcome(ctx, offer, outcome); err != nil {
		log.WithFields(log.Fields{
			"offerID": offer.ID,
			"outcome": outcome,
			"error":   err,
		}).Warn("Failed to update role offer prompt")
	}

	if outcome.Rewarded() {
		s.rewards.Dispatch(ctx, offer.Member, offer.GameUsername, fmt.Sprintf("role_offer_%s", outcome))
	}

	s.janitor.DeleteAfter(offer.Prompt, s.config.CleanupDelay)

	log.WithFields(log.Fields{
		"discordID": offer.Member.ID,
		"offerID":   offer.ID,
		"outcome":   outcome,
	}).Info("Role offer resolved")

	s.publisher.Emit(ctx, events.RoleOfferResolvedEvent{
		OfferID:   offer.ID,
		DiscordID: offer.Member.ID,
		GuildID:   offer.GuildID,
		Outcome:   string(outcome),
		OpenFor:   s.now().Sub(offer.CreatedAt),
	})
}
