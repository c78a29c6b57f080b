package workers

import (
	"context"
	"time"

	"skylark/opscommand/internal/logging"
)

// AuditPruner deletes audit rows older than a cutoff
type AuditPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetentionWorker keeps the tool audit log within its retention window
type AuditRetentionWorker struct {
	repo      AuditPruner
	retention time.Duration
	now       func() time.Time
}

// NewAuditRetentionWorker creates a new retention worker
func NewAuditRetentionWorker(repo AuditPruner, retention time.Duration) *AuditRetentionWorker {
	return &AuditRetentionWorker{
		repo:      repo,
		retention: retention,
		now:       time.Now,
	}
}

// Start prunes once immediately and then every interval until ctx ends
func (w *AuditRetentionWorker) Start(ctx context.Context, interval time.Duration) {
	logging.Info("Audit retention worker started",
		"retention", w.retention.String(),
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Audit retention worker shutting down")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *AuditRetentionWorker) prune(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	deleted, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logging.Warn("Audit pruning failed", "error", err.Error())
		return
	}
	if deleted > 0 {
		logging.Info("Pruned tool audit rows", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
}
