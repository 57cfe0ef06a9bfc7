package roleoffer

import (
	"fmt"
	"time"

	"bumpbot/bot/common"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// GrantFailedContent replaces the offer prompt when the role could not be added
const GrantFailedContent = "❌ Failed to assign role."

// CreateOfferEmbed creates the embed asking a member whether they want the bump role
func CreateOfferEmbed(offer entities.PendingOffer) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎭 Role Assignment",
		Description: fmt.Sprintf("%s, would you like the **Bump Role**?", offer.Member.Mention()),
		Color:       common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Benefits",
				Value:  "Get notified about server events!",
				Inline: false,
			},
			{
				Name:   "⏱️ Time Limit",
				Value:  common.FormatTimeLimit(offer.ExpiresAt.Sub(offer.CreatedAt)),
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: common.FooterText,
		},
		Timestamp: common.EmbedTimestamp(offer.CreatedAt),
	}
}

// CreateOutcomeEmbed renders the resolved offer. Grant failures have no embed
// and are shown as GrantFailedContent instead.
func CreateOutcomeEmbed(offer entities.PendingOffer, outcome entities.OfferOutcome) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{
			Text: common.FooterText,
		},
		Timestamp: common.EmbedTimestamp(time.Now()),
	}

	switch outcome {
	case entities.OfferConfirmed:
		embed.Title = "✅ Role Assigned!"
		embed.Description = fmt.Sprintf("Welcome to the bump team, %s! 🎉", offer.Member.Mention())
		embed.Color = common.ColorSuccess
	case entities.OfferDeclined:
		embed.Title = "👋 Role Declined"
		embed.Description = fmt.Sprintf("No problem, %s!", offer.Member.Mention())
		embed.Color = common.ColorNeutral
	case entities.OfferTimedOut:
		embed.Title = "⏰ Timed Out"
		embed.Description = "No response received. Role skipped."
		embed.Color = common.ColorTimeout
	default:
		return nil
	}

	return embed
}
