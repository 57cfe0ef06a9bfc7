package entities

import "context"

// InboundEvent is a platform event translated into one of the closed set of
// variants the router understands
type InboundEvent interface {
	inbound()
}

// InteractionReply answers the interaction that produced an event
type InteractionReply interface {
	// Defer acknowledges the interaction without visible output
	Defer(ctx context.Context) error
	// Ephemeral answers with a message only the invoking user sees
	Ephemeral(ctx context.Context, content string) error
}

// DirectInvocation is a human running the bump slash command
type DirectInvocation struct {
	InteractionID string
	GuildID       string
	ChannelID     string
	User          Member
	Reply         InteractionReply
}

// ServiceConfirmation is a message authored by another bot that may confirm a bump
type ServiceConfirmation struct {
	Message ChatMessage
}

// UserCommand is a prefix command typed by a human, e.g. "!minecraft Steve"
type UserCommand struct {
	Message ChatMessage
	Author  Member
	Name    string
	Args    []string
}

// OfferChoice is the explicit answer to a role offer
type OfferChoice string

const (
	OfferChoiceConfirm OfferChoice = "confirm"
	OfferChoiceDecline OfferChoice = "decline"
)

// ButtonChoice is a click on one of the role offer buttons
type ButtonChoice struct {
	GuildID   string
	ChannelID string
	MessageID string
	User      Member
	OfferID   string
	Choice    OfferChoice
	Reply     InteractionReply
}

// ModalSubmission is a submitted username form
type ModalSubmission struct {
	GuildID      string
	ChannelID    string
	User         Member
	GameUsername string
	Reply        InteractionReply
}

func (DirectInvocation) inbound()    {}
func (ServiceConfirmation) inbound() {}
func (UserCommand) inbound()         {}
func (ButtonChoice) inbound()        {}
func (ModalSubmission) inbound()     {}
