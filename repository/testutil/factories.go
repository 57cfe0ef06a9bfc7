package testutil

import (
	"time"

	"bumpbot/domain/interfaces"
)

// CreateTestRewardEntry creates a fully announced reward ledger entry
func CreateTestRewardEntry(discordID, gameUsername string) interfaces.RewardLedgerEntry {
	return interfaces.RewardLedgerEntry{
		DiscordID:    discordID,
		GameUsername: gameUsername,
		Reason:       "bump",
		Announced:    true,
		CommandsSent: 2,
		DispatchedAt: time.Now(),
	}
}

// CreateTestRewardEntryAt creates a reward entry dispatched at a specific time
func CreateTestRewardEntryAt(discordID string, dispatchedAt time.Time) interfaces.RewardLedgerEntry {
	entry := CreateTestRewardEntry(discordID, "Steve")
	entry.DispatchedAt = dispatchedAt
	return entry
}

// CreateTestRewardEntryWithReason creates a reward entry for a specific dispatch reason
func CreateTestRewardEntryWithReason(discordID, reason string, dispatchedAt time.Time) interfaces.RewardLedgerEntry {
	entry := CreateTestRewardEntryAt(discordID, dispatchedAt)
	entry.Reason = reason
	return entry
}
