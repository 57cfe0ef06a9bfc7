package bot

import (
	"fmt"

	"bumpbot/bot/common"

	"github.com/bwmarrin/discordgo"
)

// registerCommands registers the bot's slash commands with Discord. Commands
// are scoped to the configured guild so they appear immediately.
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        common.BumpCommandName,
			Description: "Claim your reward for bumping the server",
		},
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, commands)
	if err != nil {
		return fmt.Errorf("cannot register commands: %w", err)
	}
	return nil
}
