package application

import (
	"context"

	"bumpbot/domain/interfaces"
	"bumpbot/events"

	log "github.com/sirupsen/logrus"
)

// RewardRecorder appends every dispatched reward to the bump ledger
type RewardRecorder struct {
	ledger interfaces.BumpLedger
}

// NewRewardRecorder creates a recorder writing to ledger
func NewRewardRecorder(ledger interfaces.BumpLedger) *RewardRecorder {
	return &RewardRecorder{ledger: ledger}
}

// HandleEvent is an event bus handler. Write failures are logged and dropped.
func (r *RewardRecorder) HandleEvent(ctx context.Context, event events.Event) {
	dispatched, ok := event.(events.RewardDispatchedEvent)
	if !ok {
		return
	}

	entry := interfaces.RewardLedgerEntry{
		DiscordID:    dispatched.DiscordID,
		GameUsername: dispatched.GameUsername,
		Reason:       dispatched.Reason,
		Announced:    dispatched.Announced,
		CommandsSent: dispatched.CommandsSent,
		DispatchedAt: dispatched.DispatchedAt,
	}
	if err := r.ledger.RecordReward(ctx, entry); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"discord_id": dispatched.DiscordID,
			"reason":     dispatched.Reason,
		}).Warn("Failed to record reward in ledger")
	}
}
