package interfaces

import (
	"context"

	"bumpbot/domain/entities"
)

// ChatPlatform is the subset of the chat platform the domain depends on
type ChatPlatform interface {
	SendText(ctx context.Context, channelID, content string) (entities.MessageRef, error)
	DeleteMessage(ctx context.Context, ref entities.MessageRef) error
	// RecentMessages returns up to limit messages in provider order
	RecentMessages(ctx context.Context, channelID string, limit int) ([]entities.ChatMessage, error)
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}

// Notifier renders the bot's rich messages
type Notifier interface {
	AnnounceReward(ctx context.Context, channelID string, announcement entities.RewardAnnouncement) (entities.MessageRef, error)
	PromptForUsername(ctx context.Context, channelID string, member entities.Member) (entities.MessageRef, error)
	SendRegistrationNotice(ctx context.Context, channelID string, notice entities.RegistrationNotice) (entities.MessageRef, error)
	SendRoleOffer(ctx context.Context, channelID string, offer entities.PendingOffer) (entities.MessageRef, error)
	// ShowOfferOutcome edits the offer prompt in place and removes its buttons
	ShowOfferOutcome(ctx context.Context, offer entities.PendingOffer, outcome entities.OfferOutcome) error
}
