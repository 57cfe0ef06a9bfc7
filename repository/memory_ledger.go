package repository

import (
	"context"
	"sync"
	"time"

	"bumpbot/domain/interfaces"
)

// MemoryLedger is the bump ledger used when no database is configured. It is
// lost on restart.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	rewards []interfaces.RewardLedgerEntry
	now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		claimed: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryLedger) ClaimBump(_ context.Context, sourceID, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claimed[sourceID]; ok {
		return false, nil
	}
	l.claimed[sourceID] = l.now()
	return true, nil
}

func (l *MemoryLedger) RecordReward(_ context.Context, entry interfaces.RewardLedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rewards = append(l.rewards, entry)
	return nil
}

func (l *MemoryLedger) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int64
	for id, at := range l.claimed {
		if at.Before(olderThan) {
			delete(l.claimed, id)
			removed++
		}
	}
	kept := l.rewards[:0]
	for _, r := range l.rewards {
		if r.DispatchedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	l.rewards = kept
	return removed, nil
}

// Rewards returns a copy of the recorded rewards
func (l *MemoryLedger) Rewards() []interfaces.RewardLedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]interfaces.RewardLedgerEntry, len(l.rewards))
	copy(out, l.rewards)
	return out
}
