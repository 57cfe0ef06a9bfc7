package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultRetentionSchedule prunes once a day at 04:00
const DefaultRetentionSchedule = "0 4 * * *"

// LedgerPruner removes ledger entries older than a cutoff
type LedgerPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// LedgerRetention periodically prunes the bump and reward ledgers
type LedgerRetention struct {
	ledger    LedgerPruner
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
	timeout   time.Duration
}

// NewLedgerRetention creates a retention job keeping retention worth of history
func NewLedgerRetention(ledger LedgerPruner, retention time.Duration) *LedgerRetention {
	return &LedgerRetention{
		ledger:    ledger,
		retention: retention,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		now:       time.Now,
		timeout:   time.Minute,
	}
}

// Start schedules the job using a standard five-field cron spec
func (w *LedgerRetention) Start(schedule string) error {
	if w.retention <= 0 {
		log.Info("Ledger retention disabled")
		return nil
	}

	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	w.cron.Start()

	log.WithFields(log.Fields{
		"schedule":  schedule,
		"retention": w.retention.String(),
	}).Info("Ledger retention worker started")
	return nil
}

// Stop waits for a running prune to finish
func (w *LedgerRetention) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

// RunOnce prunes everything older than the retention window
func (w *LedgerRetention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)
	removed, err := w.ledger.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	return removed, nil
}

func (w *LedgerRetention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	removed, err := w.RunOnce(ctx)
	if err != nil {
		log.WithError(err).Error("Ledger retention run failed")
		return
	}
	log.WithField("removed", removed).Info("Ledger retention run completed")
}
