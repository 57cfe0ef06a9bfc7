package registration

import (
	"strings"

	"bumpbot/bot/common"

	"github.com/bwmarrin/discordgo"
)

// BuildUsernameModal creates the form a member fills in to link their game account
func BuildUsernameModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: common.UsernameModalCustomID,
		Title:    "Link Minecraft Account",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    common.UsernameInputCustomID,
						Label:       "Minecraft Username",
						Style:       discordgo.TextInputShort,
						Placeholder: "Steve123",
						Required:    true,
						MinLength:   common.GameUsernameMinLen,
						MaxLength:   common.GameUsernameMaxLen,
					},
				},
			},
		},
	}
}

// ExtractUsername pulls the submitted username out of the modal data
func ExtractUsername(data discordgo.ModalSubmitInteractionData) string {
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == common.UsernameInputCustomID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}
