package entities

import "time"

// OfferOutcome is the terminal state a role offer resolved to
type OfferOutcome string

const (
	OfferConfirmed   OfferOutcome = "confirmed"
	OfferGrantFailed OfferOutcome = "grant_failed"
	OfferDeclined    OfferOutcome = "declined"
	OfferTimedOut    OfferOutcome = "timed_out"
)

// Rewarded reports whether an offer resolving to this outcome pays out the bump reward
func (o OfferOutcome) Rewarded() bool {
	return o != OfferGrantFailed
}

// PendingOffer is a live, in-memory offer of the bump role awaiting a decision
type PendingOffer struct {
	ID           string
	Member       Member
	GuildID      string
	ChannelID    string
	GameUsername string
	Prompt       MessageRef
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
