package repository

import (
	"context"
	"fmt"
	"time"

	"bumpbot/database"
	"bumpbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// bumpLedgerRepository implements interfaces.BumpLedger on postgres
type bumpLedgerRepository struct {
	db *database.DB
}

// NewBumpLedgerRepository creates a postgres-backed bump ledger
func NewBumpLedgerRepository(db *database.DB) interfaces.BumpLedger {
	return &bumpLedgerRepository{db: db}
}

// ClaimBump inserts sourceID and reports whether this call was the first
func (r *bumpLedgerRepository) ClaimBump(ctx context.Context, sourceID, channelID string) (bool, error) {
	query := `
		INSERT INTO processed_bumps (source_id, channel_id)
		VALUES ($1, $2)
		ON CONFLICT (source_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, sourceID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to claim bump %s: %w", sourceID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecordReward appends a reward dispatch to the ledger
func (r *bumpLedgerRepository) RecordReward(ctx context.Context, entry interfaces.RewardLedgerEntry) error {
	query := `
		INSERT INTO reward_ledger (discord_id, minecraft_username, reason, announced, commands_sent, dispatched_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		entry.DiscordID,
		entry.GameUsername,
		entry.Reason,
		entry.Announced,
		entry.CommandsSent,
		entry.DispatchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record reward: %w", err)
	}
	return nil
}

// Prune removes processed bumps and reward rows older than the cutoff in a
// single transaction
func (r *bumpLedgerRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	var removed int64
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		bumps, err := tx.Exec(ctx, `DELETE FROM processed_bumps WHERE processed_at < $1`, olderThan)
		if err != nil {
			return fmt.Errorf("failed to prune processed bumps: %w", err)
		}
		rewards, err := tx.Exec(ctx, `DELETE FROM reward_ledger WHERE dispatched_at < $1`, olderThan)
		if err != nil {
			return fmt.Errorf("failed to prune reward ledger: %w", err)
		}
		removed = bumps.RowsAffected() + rewards.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

