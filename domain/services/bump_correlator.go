package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"bumpbot/domain/entities"
	domainerrors "bumpbot/domain/errors"
	"bumpbot/domain/interfaces"
)

// DefaultCorrelationWindow is how many recent channel messages are scanned
// for the invocation behind a bump confirmation
const DefaultCorrelationWindow = 10

// CorrelatorConfig describes which messages count as bump confirmations
type CorrelatorConfig struct {
	ChannelID   string
	ServiceIDs  []string
	Patterns    []string // case-insensitive regular expressions
	Window      int
	CommandName string
}

// BumpCorrelator recognises bump confirmations posted by known bump services
// and attributes them to the human who ran the bump command.
//
// Attribution takes the first invocation record in the order the platform
// returns history. The window is a message count with no time bound, so a
// slow confirmation can be attributed to an older invocation.
type BumpCorrelator struct {
	platform    interfaces.ChatPlatform
	channelID   string
	services    map[string]struct{}
	patterns    []*regexp.Regexp
	window      int
	commandName string
}

func NewBumpCorrelator(platform interfaces.ChatPlatform, config CorrelatorConfig) (*BumpCorrelator, error) {
	patterns := make([]*regexp.Regexp, 0, len(config.Patterns))
	for _, p := range config.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid confirmation pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	services := make(map[string]struct{}, len(config.ServiceIDs))
	for _, id := range config.ServiceIDs {
		services[strings.TrimSpace(id)] = struct{}{}
	}

	window := config.Window
	if window <= 0 {
		window = DefaultCorrelationWindow
	}
	commandName := config.CommandName
	if commandName == "" {
		commandName = "bump"
	}

	return &BumpCorrelator{
		platform:    platform,
		channelID:   config.ChannelID,
		services:    services,
		patterns:    patterns,
		window:      window,
		commandName: commandName,
	}, nil
}

// MonitorsChannel reports whether channelID is the bump channel
func (c *BumpCorrelator) MonitorsChannel(channelID string) bool {
	return channelID == c.channelID
}

// IsKnownService reports whether authorID belongs to a recognised bump service
func (c *BumpCorrelator) IsKnownService(authorID string) bool {
	_, ok := c.services[authorID]
	return ok
}

// IsConfirmation reports whether msg is a bump confirmation from a known
// service in the monitored channel
func (c *BumpCorrelator) IsConfirmation(msg entities.ChatMessage) bool {
	if !c.MonitorsChannel(msg.ChannelID) || !c.IsKnownService(msg.AuthorID) {
		return false
	}
	return c.matches(msg.SearchableText())
}

// Correlate scans recent channel history for the bump invocation behind msg.
// found is false when no invocation is in the window; that is not an error.
func (c *BumpCorrelator) Correlate(ctx context.Context, msg entities.ChatMessage) (member entities.Member, found bool, err error) {
	history, err := c.platform.RecentMessages(ctx, msg.ChannelID, c.window)
	if err != nil {
		return entities.Member{}, false, domainerrors.NewPlatformError("fetch recent messages", err)
	}

	for _, m := range history {
		inv := m.Invocation
		if inv == nil || inv.User.ID == "" {
			continue
		}
		if strings.EqualFold(inv.CommandName, c.commandName) {
			return inv.User, true, nil
		}
	}
	return entities.Member{}, false, nil
}

func (c *BumpCorrelator) matches(text string) bool {
	if text == "" {
		return false
	}
	for _, re := range c.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
