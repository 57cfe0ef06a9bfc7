package bot

import (
	"context"
	"fmt"

	"bumpbot/bot/features/bump"
	"bumpbot/bot/features/registration"
	"bumpbot/bot/features/roleoffer"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// Notifier renders the bot's embeds and buttons through a discordgo session
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a notifier for session
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// AnnounceReward posts the public reward announcement
func (n *Notifier) AnnounceReward(ctx context.Context, channelID string, announcement entities.RewardAnnouncement) (entities.MessageRef, error) {
	return n.send(ctx, channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{bump.CreateRewardEmbed(announcement)},
	})
}

// PromptForUsername asks an unregistered bumper to link their game account
func (n *Notifier) PromptForUsername(ctx context.Context, channelID string, member entities.Member) (entities.MessageRef, error) {
	return n.send(ctx, channelID, &discordgo.MessageSend{
		Content:    member.Mention(),
		Embeds:     []*discordgo.MessageEmbed{bump.CreateUsernamePromptEmbed(member)},
		Components: bump.CreateUsernamePromptComponents(),
	})
}

// SendRegistrationNotice posts feedback for a username submission
func (n *Notifier) SendRegistrationNotice(ctx context.Context, channelID string, notice entities.RegistrationNotice) (entities.MessageRef, error) {
	return n.send(ctx, channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{registration.CreateNoticeEmbed(notice)},
	})
}

// SendRoleOffer posts the role offer with its confirm and decline buttons
func (n *Notifier) SendRoleOffer(ctx context.Context, channelID string, offer entities.PendingOffer) (entities.MessageRef, error) {
	return n.send(ctx, channelID, &discordgo.MessageSend{
		Content:    offer.Member.Mention(),
		Embeds:     []*discordgo.MessageEmbed{roleoffer.CreateOfferEmbed(offer)},
		Components: roleoffer.CreateOfferComponents(offer.ID),
	})
}

// ShowOfferOutcome edits the offer prompt in place and removes its buttons
func (n *Notifier) ShowOfferOutcome(ctx context.Context, offer entities.PendingOffer, outcome entities.OfferOutcome) error {
	if offer.Prompt.IsZero() {
		return nil
	}

	components := []discordgo.MessageComponent{}
	edit := &discordgo.MessageEdit{
		ID:         offer.Prompt.MessageID,
		Channel:    offer.Prompt.ChannelID,
		Components: &components,
	}

	// Grant failures replace the prompt text; other outcomes keep the mention
	embeds := []*discordgo.MessageEmbed{}
	if embed := roleoffer.CreateOutcomeEmbed(offer, outcome); embed != nil {
		embeds = append(embeds, embed)
	} else {
		content := roleoffer.GrantFailedContent
		edit.Content = &content
	}
	edit.Embeds = &embeds

	_, err := n.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit offer message %s: %w", offer.Prompt.MessageID, err)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, channelID string, data *discordgo.MessageSend) (entities.MessageRef, error) {
	msg, err := n.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return entities.MessageRef{}, fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return messageRef(msg), nil
}
