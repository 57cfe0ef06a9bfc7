package registration

import (
	"fmt"

	"bumpbot/bot/common"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// CreateNoticeEmbed renders the feedback for a username submission
func CreateNoticeEmbed(notice entities.RegistrationNotice) *discordgo.MessageEmbed {
	mention := notice.Member.Mention()
	embed := &discordgo.MessageEmbed{}

	switch notice.Kind {
	case entities.NoticeMissingUsername:
		embed.Title = "❌ Missing Username"
		embed.Description = fmt.Sprintf("%s, provide your Minecraft username!", mention)
		embed.Color = common.ColorWarning
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name:  "📝 Usage",
				Value: "`!minecraft <username>`",
			},
		}
	case entities.NoticeInvalidUsername:
		embed.Title = "❌ Invalid Username"
		embed.Description = fmt.Sprintf("%s, username must be %d-%d characters (letters, numbers, underscores only).",
			mention, common.GameUsernameMinLen, common.GameUsernameMaxLen)
		embed.Color = common.ColorDanger
		if notice.Reason != "" {
			embed.Fields = []*discordgo.MessageEmbedField{
				{
					Name:  "Reason",
					Value: notice.Reason,
				},
			}
		}
	case entities.NoticeRegistered:
		embed.Title = "✅ Registration Successful!"
		embed.Description = fmt.Sprintf("%s, username registered: **%s**", mention, notice.GameUsername)
		embed.Color = common.ColorSuccess
	case entities.NoticeUpdated:
		embed.Title = "✅ Username Updated!"
		embed.Description = fmt.Sprintf("%s, username updated: **%s**", mention, notice.GameUsername)
		embed.Color = common.ColorSuccess
	case entities.NoticeRateLimited:
		embed.Title = "⏳ Slow Down"
		embed.Description = fmt.Sprintf("%s, you're sending commands too quickly. Try again in a few seconds.", mention)
		embed.Color = common.ColorWarning
	default:
		embed.Title = "❌ Error"
		embed.Description = fmt.Sprintf("%s, error occurred. Try again later.", mention)
		embed.Color = common.ColorDanger
	}

	return embed
}
