package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
)

// PoolDistributor checks the pool triggers. It runs on the cron schedule and
// is woken early when a burn pushes the pool over its target.
type PoolDistributor struct {
	pools    pool.Service
	interval time.Duration
	wake     chan struct{}
	logger   *logger.Logger
	now      func() time.Time
}

// NewPoolDistributor creates a new pool distributor worker
func NewPoolDistributor(pools pool.Service, interval time.Duration, log *logger.Logger) *PoolDistributor {
	return &PoolDistributor{
		pools:    pools,
		interval: interval,
		wake:     make(chan struct{}, 1),
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run evaluates the triggers once. A distribution held by another instance
// is not an error.
func (d *PoolDistributor) Run(ctx context.Context) (string, error) {
	result, err := d.pools.Distribute(ctx, d.now(), false)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeConflict) {
			return "distribution already in progress", nil
		}
		return "", err
	}

	switch {
	case result.Distributed():
		return fmt.Sprintf("round %d distributed by %s: %d tokens, %d paid, %d failed",
			result.Round, result.Trigger, result.Total, result.Completed, result.Failed), nil
	case result.Trigger != pool.TriggerNone:
		return fmt.Sprintf("round %d empty, rescheduled", result.Round), nil
	default:
		return "no trigger", nil
	}
}

// PoolChanged wakes the distributor when the pool reached its target. It
// never blocks the caller.
func (d *PoolDistributor) PoolChanged(p *pool.Pool) {
	if p == nil || p.TargetTokens <= 0 || p.TotalTokens < p.TargetTokens {
		return
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start runs the distributor until ctx is done: on every tick when an
// interval is set, and whenever PoolChanged signals the threshold
func (d *PoolDistributor) Start(ctx context.Context) {
	d.logger.Info("Starting pool distributor worker")

	var tick <-chan time.Time
	if d.interval > 0 {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			d.runOnce(ctx, "tick")
		case <-d.wake:
			d.runOnce(ctx, "threshold")
		case <-ctx.Done():
			d.logger.Info("Pool distributor worker stopped")
			return
		}
	}
}

func (d *PoolDistributor) runOnce(ctx context.Context, reason string) {
	summary, err := d.Run(ctx)
	if err != nil {
		d.logger.WithFields(map[string]interface{}{
			"reason": reason,
		}).ErrorWithErr(err, "Pool distribution check failed")
		return
	}
	d.logger.WithFields(map[string]interface{}{
		"reason":  reason,
		"summary": summary,
	}).Debug("Pool distribution check finished")
}
