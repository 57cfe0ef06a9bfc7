package bot

import (
	"strings"

	"bumpbot/bot/common"
	"bumpbot/bot/features/registration"
	"bumpbot/bot/features/roleoffer"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

const commandPrefix = "!"

// replyFactory builds the reply handle for an interaction
type replyFactory func(i *discordgo.Interaction) entities.InteractionReply

// translator turns gateway payloads into router events
type translator struct {
	bumpChannelID string
	newReply      replyFactory
}

// message translates a created message. Only messages in the bump channel
// are considered; messages from selfID are dropped.
func (t translator) message(selfID string, m *discordgo.Message) (entities.InboundEvent, bool) {
	if m == nil || m.Author == nil || m.GuildID == "" {
		return nil, false
	}
	if m.Author.ID == selfID || m.ChannelID != t.bumpChannelID {
		return nil, false
	}

	msg := toChatMessage(m)
	if m.Author.Bot {
		return entities.ServiceConfirmation{Message: msg}, true
	}

	name, args, ok := parsePrefixCommand(m.Content)
	if !ok {
		return nil, false
	}
	return entities.UserCommand{
		Message: msg,
		Author:  toMember(m.Author),
		Name:    name,
		Args:    args,
	}, true
}

// interaction translates a slash command, button click, or modal submission
func (t translator) interaction(i *discordgo.Interaction) (entities.InboundEvent, bool) {
	if i == nil {
		return nil, false
	}
	user := toMember(common.InteractionUser(i))

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if !strings.EqualFold(i.ApplicationCommandData().Name, common.BumpCommandName) {
			return nil, false
		}
		return entities.DirectInvocation{
			InteractionID: i.ID,
			GuildID:       i.GuildID,
			ChannelID:     i.ChannelID,
			User:          user,
			Reply:         t.newReply(i),
		}, true

	case discordgo.InteractionMessageComponent:
		offerID, choice, ok := roleoffer.ParseCustomID(i.MessageComponentData().CustomID)
		if !ok {
			return nil, false
		}
		var messageID string
		if i.Message != nil {
			messageID = i.Message.ID
		}
		return entities.ButtonChoice{
			GuildID:   i.GuildID,
			ChannelID: i.ChannelID,
			MessageID: messageID,
			User:      user,
			OfferID:   offerID,
			Choice:    choice,
			Reply:     t.newReply(i),
		}, true

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		if data.CustomID != common.UsernameModalCustomID {
			return nil, false
		}
		return entities.ModalSubmission{
			GuildID:      i.GuildID,
			ChannelID:    i.ChannelID,
			User:         user,
			GameUsername: registration.ExtractUsername(data),
			Reply:        t.newReply(i),
		}, true
	}

	return nil, false
}

// parsePrefixCommand splits "!name arg1 arg2" into its name and arguments
func parsePrefixCommand(content string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, commandPrefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, commandPrefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func toMember(u *discordgo.User) entities.Member {
	if u == nil {
		return entities.Member{}
	}
	tag := u.Username
	if u.Discriminator != "" && u.Discriminator != "0" {
		tag = u.Username + "#" + u.Discriminator
	}
	return entities.Member{ID: u.ID, Tag: tag}
}

func toChatMessage(m *discordgo.Message) entities.ChatMessage {
	msg := entities.ChatMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorBot = m.Author.Bot
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		msg.Embeds = append(msg.Embeds, entities.EmbedText{Title: e.Title, Description: e.Description})
	}
	if m.Interaction != nil && m.Interaction.User != nil {
		msg.Invocation = &entities.InvocationRecord{
			CommandName: m.Interaction.Name,
			User:        toMember(m.Interaction.User),
		}
	}
	return msg
}
