package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/interfaces"
	"bumpbot/events"

	log "github.com/sirupsen/logrus"
)

// How long each registration notice stays in the channel
var noticeLifetimes = map[entities.NoticeKind]time.Duration{
	entities.NoticeMissingUsername: 30 * time.Second,
	entities.NoticeInvalidUsername: 30 * time.Second,
	entities.NoticeRegistered:      60 * time.Second,
	entities.NoticeUpdated:         60 * time.Second,
	entities.NoticeFailed:          30 * time.Second,
	entities.NoticeRateLimited:     15 * time.Second,
}

// RegistrationRequest is a username submitted from any entry point
type RegistrationRequest struct {
	Member       entities.Member
	GuildID      string
	ChannelID    string
	GameUsername string
}

// RegistrationService validates and upserts game usernames, then offers the
// bump role to members who do not hold it yet
type RegistrationService struct {
	store     interfaces.IdentityStore
	offers    interfaces.RoleOfferer
	notifier  interfaces.Notifier
	janitor   *MessageJanitor
	publisher interfaces.EventPublisher
}

func NewRegistrationService(
	store interfaces.IdentityStore,
	offers interfaces.RoleOfferer,
	notifier interfaces.Notifier,
	janitor *MessageJanitor,
	publisher interfaces.EventPublisher,
) *RegistrationService {
	return &RegistrationService{
		store:     store,
		offers:    offers,
		notifier:  notifier,
		janitor:   janitor,
		publisher: publisher,
	}
}

// Register validates gameUsername and creates or updates the member's record.
// A member never gets a second record: an existing one is updated in place.
func (s *RegistrationService) Register(ctx context.Context, member entities.Member, gameUsername string) (record *entities.MemberRecord, updated bool, err error) {
	if err := entities.ValidateGameUsername(gameUsername); err != nil {
		return nil, false, domainerrors.NewValidationError("username", err)
	}

	existing, err := s.store.FindByExternalID(ctx, member.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up member: %w", err)
	}

	if existing != nil {
		record, err = s.store.Update(ctx, existing.RecordID, gameUsername)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update member record: %w", err)
		}
		updated = true
	} else {
		record, err = s.store.Create(ctx, member.ID, member.Tag, gameUsername)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create member record: %w", err)
		}
	}

	s.publisher.Emit(ctx, events.MemberRegisteredEvent{
		DiscordID:    member.ID,
		GameUsername: gameUsername,
		Updated:      updated,
	})

	return record, updated, nil
}

// Submit runs the full registration workflow for a user-facing submission,
// posting a self-deleting notice for every outcome
func (s *RegistrationService) Submit(ctx context.Context, req RegistrationRequest) {
	username := strings.TrimSpace(req.GameUsername)
	if username == "" {
		s.notify(ctx, req.ChannelID, entities.RegistrationNotice{
			Kind:   entities.NoticeMissingUsername,
			Member: req.Member,
		})
		return
	}

	_, updated, err := s.Register(ctx, req.Member, username)
	if err != nil {
		var validationErr *domainerrors.ValidationError
		if errors.As(err, &validationErr) {
			s.notify(ctx, req.ChannelID, entities.RegistrationNotice{
				Kind:         entities.NoticeInvalidUsername,
				Member:       req.Member,
				GameUsername: username,
				Reason:       validationErr.Err.Error(),
			})
			return
		}
		log.WithFields(log.Fields{
			"discordID": req.Member.ID,
			"error":     err,
		}).Error("Failed to register game username")
		s.notify(ctx, req.ChannelID, entities.RegistrationNotice{
			Kind:   entities.NoticeFailed,
			Member: req.Member,
		})
		return
	}

	kind := entities.NoticeRegistered
	if updated {
		kind = entities.NoticeUpdated
	}
	s.notify(ctx, req.ChannelID, entities.RegistrationNotice{
		Kind:         kind,
		Member:       req.Member,
		GameUsername: username,
	})

	log.WithFields(log.Fields{
		"discordID": req.Member.ID,
		"tag":       req.Member.Tag,
		"username":  username,
		"updated":   updated,
	}).Info("Game username registered")

	s.offerRole(ctx, req, username)
}

func (s *RegistrationService) offerRole(ctx context.Context, req RegistrationRequest, username string) {
	_, err := s.offers.Offer(ctx, req.Member, req.GuildID, req.ChannelID, username)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyHasRole):
		log.WithField("discordID", req.Member.ID).Debug("Member already has bump role, no offer")
	case errors.Is(err, ErrOfferPending):
		log.WithField("discordID", req.Member.ID).Info("Role offer already pending, refreshed username")
	default:
		log.WithFields(log.Fields{
			"discordID": req.Member.ID,
			"error":     err,
		}).Error("Failed to offer bump role")
	}
}

func (s *RegistrationService) notify(ctx context.Context, channelID string, notice entities.RegistrationNotice) {
	ref, err := s.notifier.SendRegistrationNotice(ctx, channelID, notice)
	if err != nil {
		log.WithFields(log.Fields{
			"discordID": notice.Member.ID,
			"kind":      notice.Kind,
			"error":     err,
		}).Warn("Failed to send registration notice")
		return
	}
	s.janitor.DeleteAfter(ref, noticeLifetimes[notice.Kind])
}

// NotifyRateLimited tells the member to slow down
func (s *RegistrationService) NotifyRateLimited(ctx context.Context, channelID string, member entities.Member) {
	s.notify(ctx, channelID, entities.RegistrationNotice{
		Kind:   entities.NoticeRateLimited,
		Member: member,
	})
}
