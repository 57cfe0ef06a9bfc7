package bump

import (
	"fmt"

	"bumpbot/bot/common"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// CreateRewardEmbed creates the public announcement for a rewarded bump
func CreateRewardEmbed(announcement entities.RewardAnnouncement) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎮 Bump Detected - Reward Sent!",
		Description: fmt.Sprintf("%s bumped the server! 🎁", announcement.Member.Mention()),
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🎯 Minecraft Username",
				Value:  announcement.DisplayUsername,
				Inline: true,
			},
			{
				Name:   "⏰ Time",
				Value:  common.FormatDiscordTimestamp(announcement.At, "F"),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: common.FooterText,
		},
		Timestamp: common.EmbedTimestamp(announcement.At),
	}

	if len(announcement.RewardLines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "💰 Rewards",
			Value:  common.FormatBulletList(announcement.RewardLines),
			Inline: false,
		})
	}

	return embed
}

// CreateUsernamePromptEmbed asks a member with no linked account to register one
func CreateUsernamePromptEmbed(member entities.Member) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎮 Minecraft Username Required",
		Description: fmt.Sprintf("%s, thanks for bumping! Link your Minecraft account to receive rewards.", member.Mention()),
		Color:       common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Command",
				Value:  "`!minecraft <username>`",
				Inline: false,
			},
			{
				Name:   "Example",
				Value:  "`!minecraft Steve123`",
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Or press the button below",
		},
	}
}

// CreateUsernamePromptComponents creates the button that opens the username form
func CreateUsernamePromptComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Set username",
					Style:    discordgo.PrimaryButton,
					CustomID: common.UsernameButtonCustomID,
					Emoji:    &discordgo.ComponentEmoji{Name: "📝"},
				},
			},
		},
	}
}
