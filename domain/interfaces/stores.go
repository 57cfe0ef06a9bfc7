package interfaces

import (
	"context"
	"time"

	"bumpbot/domain/entities"
)

// IdentityStore is the external table linking Discord members to game accounts.
// Every call is a fresh remote lookup; implementations do not cache.
type IdentityStore interface {
	// FindByExternalID returns the record for discordID, or nil when none exists
	FindByExternalID(ctx context.Context, discordID string) (*entities.MemberRecord, error)
	Create(ctx context.Context, discordID, discordTag, gameUsername string) (*entities.MemberRecord, error)
	Update(ctx context.Context, recordID int64, gameUsername string) (*entities.MemberRecord, error)
}

// RewardLedgerEntry is one persisted reward dispatch
type RewardLedgerEntry struct {
	DiscordID    string
	GameUsername string
	Reason       string
	Announced    bool
	CommandsSent int
	DispatchedAt time.Time
}

// BumpLedger deduplicates bump confirmations and records dispatched rewards
type BumpLedger interface {
	// ClaimBump records sourceID as processed. It returns false when the
	// same source was already claimed.
	ClaimBump(ctx context.Context, sourceID, channelID string) (bool, error)
	RecordReward(ctx context.Context, entry RewardLedgerEntry) error
	// Prune removes entries older than the cutoff and returns how many were removed
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
