package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/domain/transfer"
	"github.com/moodlync/tokencore/internal/pkg/logger"
)

// PendingSweeper fails stale pending transfers and retries unpaid pool rows
type PendingSweeper struct {
	transfers transfer.Service
	pools     pool.Service
	logger    *logger.Logger
	now       func() time.Time
}

// NewPendingSweeper creates a new sweeper worker
func NewPendingSweeper(transfers transfer.Service, pools pool.Service, log *logger.Logger) *PendingSweeper {
	return &PendingSweeper{
		transfers: transfers,
		pools:     pools,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once. A failure in one half does not skip the other.
func (s *PendingSweeper) Run(ctx context.Context) (string, error) {
	now := s.now()

	swept, terr := s.transfers.SweepPending(ctx, now)
	if terr != nil {
		s.logger.ErrorWithErr(terr, "Transfer sweep failed")
	}

	payouts, perr := s.pools.SweepPayouts(ctx, now)
	if perr != nil {
		s.logger.ErrorWithErr(perr, "Payout sweep failed")
		payouts = &pool.SweepResult{}
	}

	summary := fmt.Sprintf("%d transfers failed, %d payouts retried (%d paid, %d failed)",
		swept, payouts.Retried, payouts.Completed, payouts.Failed)

	if terr != nil {
		return summary, terr
	}
	return summary, perr
}
