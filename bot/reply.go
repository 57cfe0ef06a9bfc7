package bot

import (
	"context"
	"sync/atomic"

	"bumpbot/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// interactionReply answers one interaction. The first call responds to the
// interaction; later calls become follow-ups.
type interactionReply struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	responded   atomic.Bool
}

func newInteractionReply(session *discordgo.Session) replyFactory {
	return func(i *discordgo.Interaction) entities.InteractionReply {
		return &interactionReply{session: session, interaction: i}
	}
}

// Defer acknowledges the interaction. Component clicks and modal submissions
// are acknowledged as a pending update of the message they came from.
func (r *interactionReply) Defer(ctx context.Context) error {
	if r.responded.Swap(true) {
		return nil
	}

	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}
	if r.interaction.Type == discordgo.InteractionApplicationCommand {
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}
	}
	return r.session.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx))
}

// Ephemeral sends content only the invoking user can see
func (r *interactionReply) Ephemeral(ctx context.Context, content string) error {
	if r.responded.Swap(true) {
		_, err := r.session.FollowupMessageCreate(r.interaction, false, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx))
		return err
	}

	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}
