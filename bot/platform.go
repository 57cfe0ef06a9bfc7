package bot

import (
	"context"
	"fmt"
	"slices"

	"bumpbot/bot/common"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// Platform implements the domain's chat platform port on a discordgo session
type Platform struct {
	session *discordgo.Session
}

// NewPlatform creates a platform adapter for session
func NewPlatform(session *discordgo.Session) *Platform {
	return &Platform{session: session}
}

// SendText posts plain text to a channel
func (p *Platform) SendText(ctx context.Context, channelID, content string) (entities.MessageRef, error) {
	msg, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return entities.MessageRef{}, fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return messageRef(msg), nil
}

// DeleteMessage removes a message the bot can see
func (p *Platform) DeleteMessage(ctx context.Context, ref entities.MessageRef) error {
	if err := p.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", ref.MessageID, err)
	}
	return nil
}

// RecentMessages returns the newest messages in a channel, newest first
func (p *Platform) RecentMessages(ctx context.Context, channelID string, limit int) ([]entities.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	limit = min(limit, common.MaxRecentLookback)

	messages, err := p.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for channel %s: %w", channelID, err)
	}

	result := make([]entities.ChatMessage, 0, len(messages))
	for _, m := range messages {
		result = append(result, toChatMessage(m))
	}
	return result, nil
}

// HasRole reports whether a guild member currently holds roleID
func (p *Platform) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	member, err := p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch member %s: %w", userID, err)
	}
	return slices.Contains(member.Roles, roleID), nil
}

// AddRole grants roleID to a guild member
func (p *Platform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to member %s: %w", roleID, userID, err)
	}
	return nil
}

func messageRef(msg *discordgo.Message) entities.MessageRef {
	if msg == nil {
		return entities.MessageRef{}
	}
	return entities.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}
}
