package entities

import "fmt"

// Member is a human guild member as seen by the bot
type Member struct {
	ID  string
	Tag string // display handle, e.g. "steve" or "steve#0001"
}

// Mention renders the member as a chat mention
func (m Member) Mention() string {
	return fmt.Sprintf("<@%s>", m.ID)
}

// MessageRef identifies a message the bot can later edit or delete
type MessageRef struct {
	ChannelID string
	MessageID string
}

// IsZero reports whether the reference points at nothing
func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" || r.MessageID == ""
}

// EmbedText is the visible text of one rich embed attached to a message
type EmbedText struct {
	Title       string
	Description string
}

// InvocationRecord is the command metadata the platform attaches to a message
// produced in response to a slash command
type InvocationRecord struct {
	CommandName string
	User        Member
}

// ChatMessage is a platform message reduced to the fields the bot inspects
type ChatMessage struct {
	ID         string
	ChannelID  string
	GuildID    string
	AuthorID   string
	AuthorBot  bool
	Content    string
	Embeds     []EmbedText
	Invocation *InvocationRecord
}

// SearchableText joins the message content with every embed title and description
func (m ChatMessage) SearchableText() string {
	text := m.Content
	for _, e := range m.Embeds {
		text += " " + e.Title + " " + e.Description
	}
	return text
}
