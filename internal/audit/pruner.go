package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// Pruner deletes records older than a retention window on a cron schedule.
type Pruner struct {
	store     *Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	now       func() time.Time
}

func NewPruner(store *Store, retention time.Duration, schedule string, logger *slog.Logger) (*Pruner, error) {
	if !gronx.New().IsValid(schedule) {
		return nil, fmt.Errorf("invalid prune schedule %q", schedule)
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// PruneOnce deletes everything older than now - retention.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Info("pruned audit records", "deleted", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	}
	return n, nil
}

// Run prunes once immediately and then at every schedule tick until ctx is
// done.
func (p *Pruner) Run(ctx context.Context) error {
	if _, err := p.PruneOnce(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("audit prune failed", "error", err)
	}
	for {
		next, err := gronx.NextTickAfter(p.schedule, p.now(), false)
		if err != nil {
			return fmt.Errorf("next prune tick: %w", err)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if _, err := p.PruneOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("audit prune failed", "error", err)
		}
	}
}
