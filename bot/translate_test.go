package bot

import (
	"context"
	"testing"

	"bumpbot/bot/common"
	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSelfID        = "999"
	testBumpChannel   = "bump-channel"
	testGuild         = "guild-1"
	testDisboardBotID = "302050872383242240"
)

type stubReply struct{}

func (stubReply) Defer(context.Context) error             { return nil }
func (stubReply) Ephemeral(context.Context, string) error { return nil }

func newTestTranslator() translator {
	return translator{
		bumpChannelID: testBumpChannel,
		newReply: func(*discordgo.Interaction) entities.InteractionReply {
			return stubReply{}
		},
	}
}

func TestTranslator_Message(t *testing.T) {
	human := &discordgo.User{ID: "42", Username: "steve", Discriminator: "0"}
	service := &discordgo.User{ID: testDisboardBotID, Username: "DISBOARD", Bot: true}

	tests := []struct {
		name    string
		message *discordgo.Message
		wantOK  bool
		check   func(t *testing.T, event entities.InboundEvent)
	}{
		{
			name: "prefix command",
			message: &discordgo.Message{
				ID: "m1", ChannelID: testBumpChannel, GuildID: testGuild,
				Author: human, Content: "!minecraft Steve123",
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				cmd, ok := event.(entities.UserCommand)
				require.True(t, ok)
				assert.Equal(t, "minecraft", cmd.Name)
				assert.Equal(t, []string{"Steve123"}, cmd.Args)
				assert.Equal(t, entities.Member{ID: "42", Tag: "steve"}, cmd.Author)
				assert.Equal(t, "m1", cmd.Message.ID)
			},
		},
		{
			name: "prefix command without arguments",
			message: &discordgo.Message{
				ID: "m2", ChannelID: testBumpChannel, GuildID: testGuild,
				Author: human, Content: "  !minecraft  ",
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				cmd := event.(entities.UserCommand)
				assert.Equal(t, "minecraft", cmd.Name)
				assert.Empty(t, cmd.Args)
			},
		},
		{
			name: "bot message becomes service confirmation",
			message: &discordgo.Message{
				ID: "m3", ChannelID: testBumpChannel, GuildID: testGuild, Author: service,
				Embeds: []*discordgo.MessageEmbed{{Title: "DISBOARD", Description: "Bump done! :thumbsup:"}},
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				conf, ok := event.(entities.ServiceConfirmation)
				require.True(t, ok)
				assert.Equal(t, testDisboardBotID, conf.Message.AuthorID)
				assert.True(t, conf.Message.AuthorBot)
				require.Len(t, conf.Message.Embeds, 1)
				assert.Contains(t, conf.Message.SearchableText(), "Bump done!")
			},
		},
		{
			name: "plain chatter ignored",
			message: &discordgo.Message{
				ID: "m4", ChannelID: testBumpChannel, GuildID: testGuild, Author: human, Content: "hello",
			},
		},
		{
			name: "bare prefix ignored",
			message: &discordgo.Message{
				ID: "m5", ChannelID: testBumpChannel, GuildID: testGuild, Author: human, Content: "!",
			},
		},
		{
			name: "other channel ignored",
			message: &discordgo.Message{
				ID: "m6", ChannelID: "general", GuildID: testGuild, Author: human, Content: "!minecraft Steve",
			},
		},
		{
			name: "own message ignored",
			message: &discordgo.Message{
				ID: "m7", ChannelID: testBumpChannel, GuildID: testGuild,
				Author: &discordgo.User{ID: testSelfID, Bot: true}, Content: "🎮 Bump received!",
			},
		},
		{
			name: "direct message ignored",
			message: &discordgo.Message{
				ID: "m8", ChannelID: testBumpChannel, Author: human, Content: "!minecraft Steve",
			},
		},
		{
			name:    "missing author ignored",
			message: &discordgo.Message{ID: "m9", ChannelID: testBumpChannel, GuildID: testGuild},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			event, ok := newTestTranslator().message(testSelfID, tt.message)
			assert.Equal(t, tt.wantOK, ok)
			if tt.check != nil {
				tt.check(t, event)
			}
		})
	}
}

func TestToChatMessage_Invocation(t *testing.T) {
	msg := toChatMessage(&discordgo.Message{
		ID:        "m1",
		ChannelID: testBumpChannel,
		Author:    &discordgo.User{ID: testDisboardBotID, Bot: true},
		Interaction: &discordgo.MessageInteraction{
			Name: "bump",
			User: &discordgo.User{ID: "42", Username: "steve", Discriminator: "0001"},
		},
	})

	require.NotNil(t, msg.Invocation)
	assert.Equal(t, "bump", msg.Invocation.CommandName)
	assert.Equal(t, entities.Member{ID: "42", Tag: "steve#0001"}, msg.Invocation.User)

	plain := toChatMessage(&discordgo.Message{ID: "m2", Author: &discordgo.User{ID: "1"}})
	assert.Nil(t, plain.Invocation)
}

func TestTranslator_Interaction(t *testing.T) {
	member := &discordgo.Member{User: &discordgo.User{ID: "42", Username: "steve"}}

	tests := []struct {
		name        string
		interaction *discordgo.Interaction
		wantOK      bool
		check       func(t *testing.T, event entities.InboundEvent)
	}{
		{
			name: "bump slash command",
			interaction: &discordgo.Interaction{
				ID: "int-1", Type: discordgo.InteractionApplicationCommand,
				GuildID: testGuild, ChannelID: testBumpChannel, Member: member,
				Data: discordgo.ApplicationCommandInteractionData{Name: "bump"},
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				inv, ok := event.(entities.DirectInvocation)
				require.True(t, ok)
				assert.Equal(t, "int-1", inv.InteractionID)
				assert.Equal(t, "42", inv.User.ID)
				assert.Equal(t, testBumpChannel, inv.ChannelID)
				assert.NotNil(t, inv.Reply)
			},
		},
		{
			name: "unknown slash command",
			interaction: &discordgo.Interaction{
				Type: discordgo.InteractionApplicationCommand, Member: member,
				Data: discordgo.ApplicationCommandInteractionData{Name: "balance"},
			},
		},
		{
			name: "offer button",
			interaction: &discordgo.Interaction{
				Type: discordgo.InteractionMessageComponent, GuildID: testGuild, ChannelID: testBumpChannel,
				Member: member, Message: &discordgo.Message{ID: "offer-msg"},
				Data: discordgo.MessageComponentInteractionData{CustomID: "role_offer:confirm:abc"},
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				choice, ok := event.(entities.ButtonChoice)
				require.True(t, ok)
				assert.Equal(t, "abc", choice.OfferID)
				assert.Equal(t, entities.OfferChoiceConfirm, choice.Choice)
				assert.Equal(t, "offer-msg", choice.MessageID)
			},
		},
		{
			name: "legacy decline button",
			interaction: &discordgo.Interaction{
				Type: discordgo.InteractionMessageComponent, Member: member,
				Data: discordgo.MessageComponentInteractionData{CustomID: common.LegacyDeclineCustomID},
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				choice := event.(entities.ButtonChoice)
				assert.Empty(t, choice.OfferID)
				assert.Equal(t, entities.OfferChoiceDecline, choice.Choice)
			},
		},
		{
			name: "unrelated button",
			interaction: &discordgo.Interaction{
				Type: discordgo.InteractionMessageComponent, Member: member,
				Data: discordgo.MessageComponentInteractionData{CustomID: "something_else"},
			},
		},
		{
			name: "username modal",
			interaction: &discordgo.Interaction{
				Type: discordgo.InteractionModalSubmit, GuildID: testGuild, ChannelID: testBumpChannel,
				User: &discordgo.User{ID: "42"},
				Data: discordgo.ModalSubmitInteractionData{
					CustomID: common.UsernameModalCustomID,
					Components: []discordgo.MessageComponent{
						&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
							&discordgo.TextInput{CustomID: common.UsernameInputCustomID, Value: "Steve123"},
						}},
					},
				},
			},
			wantOK: true,
			check: func(t *testing.T, event entities.InboundEvent) {
				sub, ok := event.(entities.ModalSubmission)
				require.True(t, ok)
				assert.Equal(t, "Steve123", sub.GameUsername)
				assert.Equal(t, "42", sub.User.ID)
			},
		},
		{
			name: "other modal",
			interaction: &discordgo.Interaction{
				Type: discordgo.InteractionModalSubmit, Member: member,
				Data: discordgo.ModalSubmitInteractionData{CustomID: "bet_amount_modal"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			event, ok := newTestTranslator().interaction(tt.interaction)
			assert.Equal(t, tt.wantOK, ok)
			if tt.check != nil {
				tt.check(t, event)
			}
		})
	}
}

func TestParsePrefixCommand(t *testing.T) {
	name, args, ok := parsePrefixCommand("!Minecraft  Steve  extra")
	require.True(t, ok)
	assert.Equal(t, "Minecraft", name)
	assert.Equal(t, []string{"Steve", "extra"}, args)

	_, _, ok = parsePrefixCommand("minecraft Steve")
	assert.False(t, ok)
}
