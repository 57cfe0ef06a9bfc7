package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/interfaces"
	"bumpbot/events"

	log "github.com/sirupsen/logrus"
)

// UsernamePlaceholder is substituted into console command templates
const UsernamePlaceholder = "{username}"

// RewardConfig controls where and how rewards are emitted
type RewardConfig struct {
	AnnounceChannelID string
	ConsoleChannelID  string
	CommandTemplates  []string
	RewardLines       []string
	HiddenMemberIDs   []string
}

// RewardDispatcher posts the public reward notice and the console commands
// that grant the in-game rewards. Neither step retries, and a failure in one
// does not stop the other.
type RewardDispatcher struct {
	platform  interfaces.ChatPlatform
	notifier  interfaces.Notifier
	publisher interfaces.EventPublisher
	config    RewardConfig
	hidden    map[string]struct{}
	now       func() time.Time
}

func NewRewardDispatcher(
	platform interfaces.ChatPlatform,
	notifier interfaces.Notifier,
	publisher interfaces.EventPublisher,
	config RewardConfig,
) *RewardDispatcher {
	hidden := make(map[string]struct{}, len(config.HiddenMemberIDs))
	for _, id := range config.HiddenMemberIDs {
		hidden[strings.TrimSpace(id)] = struct{}{}
	}
	return &RewardDispatcher{
		platform:  platform,
		notifier:  notifier,
		publisher: publisher,
		config:    config,
		hidden:    hidden,
		now:       time.Now,
	}
}

// IsHidden reports whether the member's game username is redacted in public notices
func (d *RewardDispatcher) IsHidden(memberID string) bool {
	_, ok := d.hidden[memberID]
	return ok
}

// ConsoleCommands renders the console command sequence for gameUsername
func (d *RewardDispatcher) ConsoleCommands(gameUsername string) []string {
	commands := make([]string, 0, len(d.config.CommandTemplates))
	for _, tmpl := range d.config.CommandTemplates {
		commands = append(commands, strings.ReplaceAll(tmpl, UsernamePlaceholder, gameUsername))
	}
	return commands
}

// AnnounceReward posts the public reward notice
func (d *RewardDispatcher) AnnounceReward(ctx context.Context, member entities.Member, gameUsername string) error {
	hidden := d.IsHidden(member.ID)
	display := gameUsername
	if hidden {
		display = entities.HiddenUsernamePlaceholder
	}

	_, err := d.notifier.AnnounceReward(ctx, d.config.AnnounceChannelID, entities.RewardAnnouncement{
		Member:          member,
		DisplayUsername: display,
		Hidden:          hidden,
		RewardLines:     d.config.RewardLines,
		At:              d.now(),
	})
	return domainerrors.NewPlatformError("announce reward", err)
}

// IssueConsoleCommands posts each console command in order and returns how
// many were sent. A failed command does not stop the ones after it.
func (d *RewardDispatcher) IssueConsoleCommands(ctx context.Context, gameUsername string) (int, error) {
	var errs []error
	sent := 0
	for _, command := range d.ConsoleCommands(gameUsername) {
		if _, err := d.platform.SendText(ctx, d.config.ConsoleChannelID, command); err != nil {
			errs = append(errs, domainerrors.NewPlatformError("send console command", err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// Dispatch announces the reward and issues the console commands. Failures are
// logged and reflected in the returned report, never returned.
func (d *RewardDispatcher) Dispatch(ctx context.Context, member entities.Member, gameUsername, reason string) entities.RewardReport {
	report := entities.RewardReport{
		Member:          member,
		GameUsername:    gameUsername,
		CommandsPlanned: len(d.config.CommandTemplates),
	}

	if err := d.AnnounceReward(ctx, member, gameUsername); err != nil {
		log.WithFields(log.Fields{
			"discordID": member.ID,
			"error":     err,
		}).Error("Failed to send reward announcement")
	} else {
		report.Announced = true
	}

	sent, err := d.IssueConsoleCommands(ctx, gameUsername)
	report.CommandsSent = sent
	if err != nil {
		log.WithFields(log.Fields{
			"discordID": member.ID,
			"sent":      sent,
			"planned":   report.CommandsPlanned,
			"error":     err,
		}).Error("Failed to send console commands")
	}

	log.WithFields(log.Fields{
		"discordID":    member.ID,
		"reason":       reason,
		"announced":    report.Announced,
		"commandsSent": report.CommandsSent,
	}).Info("Bump reward dispatched")

	d.publisher.Emit(ctx, events.RewardDispatchedEvent{
		DiscordID:    member.ID,
		GameUsername: gameUsername,
		Announced:    report.Announced,
		CommandsSent: report.CommandsSent,
		Reason:       reason,
		DispatchedAt: d.now(),
	})

	return report
}
