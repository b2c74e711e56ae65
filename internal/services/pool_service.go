package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/lock"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

const distributionLockKey = "pool:distribution"

// PoolService implements pool.Service
type PoolService struct {
	repo    pool.Repository
	ledger  ledger.Service
	tx      Transactor
	locker  lock.Locker
	lockTTL time.Duration
	economy config.EconomyConfig
	logger  *logger.Logger
	now     Clock
}

// NewPoolService creates a new pool service
func NewPoolService(
	repo pool.Repository,
	ledgerService ledger.Service,
	tx Transactor,
	locker lock.Locker,
	lockTTL time.Duration,
	economy config.EconomyConfig,
	log *logger.Logger,
) pool.Service {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &PoolService{
		repo:    repo,
		ledger:  ledgerService,
		tx:      tx,
		locker:  locker,
		lockTTL: lockTTL,
		economy: economy,
		logger:  log,
		now:     utcNow,
	}
}

// Init creates the pool row from the configured economy on first start
func (s *PoolService) Init(ctx context.Context) error {
	next := s.now().Add(s.economy.DistributionInterval)
	if err := s.repo.Ensure(ctx, &pool.Pool{
		TargetTokens:              s.economy.TargetTokens,
		NextDistributionDate:      &next,
		CharityPercentage:         s.economy.CharityPercentage,
		TopContributorsPercentage: s.economy.TopContributorsPercentage,
		MaxTopContributors:        s.economy.MaxTopContributors,
	}); err != nil {
		return err
	}

	p, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	metrics.SetPoolState(p.TotalTokens, p.DistributionRound)
	return nil
}

// Get returns the pool state
func (s *PoolService) Get(ctx context.Context) (*pool.Pool, error) {
	return s.repo.Get(ctx)
}

// Contributors returns ranked contributors of a round; round 0 means current
func (s *PoolService) Contributors(ctx context.Context, round int64) ([]pool.ContributorTotal, error) {
	if round <= 0 {
		p, err := s.repo.Get(ctx)
		if err != nil {
			return nil, err
		}
		round = p.DistributionRound
	}

	totals, err := s.repo.ContributorTotals(ctx, round)
	if err != nil {
		return nil, err
	}
	return pool.Rank(totals), nil
}

// Distributions returns payout rows of a round; round 0 means the last closed one
func (s *PoolService) Distributions(ctx context.Context, round int64) ([]*pool.Distribution, error) {
	if round <= 0 {
		p, err := s.repo.Get(ctx)
		if err != nil {
			return nil, err
		}
		round = p.DistributionRound - 1
		if round < 1 {
			return []*pool.Distribution{}, nil
		}
	}
	return s.repo.ListDistributions(ctx, round)
}

// Distribute evaluates the triggers and, when one holds, closes the round and
// pays every row. force distributes regardless of the triggers.
//
// Closing happens in one transaction: the pool row is locked, payout rows are
// written as pending, the total is reset and the round advanced. Payouts run
// afterwards, each in its own transaction, so one failing credit never blocks
// the others. Failed rows are retried by SweepPayouts.
func (s *PoolService) Distribute(ctx context.Context, now time.Time, force bool) (*pool.DistributionResult, error) {
	release, err := s.locker.Acquire(ctx, distributionLockKey, s.lockTTL)
	if err != nil {
		if stderrors.Is(err, lock.ErrNotAcquired) {
			return nil, errors.Conflict("A distribution is already in progress")
		}
		return nil, errors.ServiceUnavailable("Distribution lock unavailable")
	}
	defer release()

	result := &pool.DistributionResult{}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx)
		if err != nil {
			return err
		}

		result.Round = p.DistributionRound
		result.NextRound = p.DistributionRound
		result.Total = p.TotalTokens

		trigger := pool.ShouldDistribute(p, now)
		if trigger == pool.TriggerNone && force {
			trigger = pool.TriggerManual
		}
		result.Trigger = trigger
		if trigger == pool.TriggerNone {
			return nil
		}

		next := now.Add(s.economy.DistributionInterval)
		if p.TotalTokens <= 0 {
			return s.repo.Reschedule(ctx, p.DistributionRound, &next)
		}

		totals, err := s.repo.ContributorTotals(ctx, p.DistributionRound)
		if err != nil {
			return err
		}
		ranked := pool.Rank(totals)
		alloc := pool.Allocate(p.TotalTokens, ranked, p.Settings(), s.economy.Charities)

		var contributed int64
		for _, t := range totals {
			contributed += t.Total
		}
		if contributed != p.TotalTokens {
			s.logger.ForRound(p.DistributionRound).WithFields(map[string]interface{}{
				"pool_total":  p.TotalTokens,
				"contributed": contributed,
			}).Warn("Pool total differs from recorded contributions")
		}

		rows, err := s.createRows(ctx, p.DistributionRound, alloc)
		if err != nil {
			return err
		}
		result.Rows = rows

		if err := s.repo.CloseRound(ctx, p.DistributionRound, &next, now); err != nil {
			return err
		}
		result.NextRound = p.DistributionRound + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Distributed() {
		if result.Trigger != pool.TriggerNone {
			s.logger.ForRound(result.Round).WithFields(map[string]interface{}{
				"trigger": result.Trigger,
			}).Info("Pool empty; next distribution rescheduled")
		}
		return result, nil
	}

	metrics.SetPoolState(0, result.NextRound)
	for _, d := range result.Rows {
		if s.pay(ctx, d) {
			result.Completed++
		} else {
			result.Failed++
		}
	}

	s.logger.ForRound(result.Round).WithFields(map[string]interface{}{
		"trigger":   result.Trigger,
		"total":     result.Total,
		"rows":      len(result.Rows),
		"completed": result.Completed,
		"failed":    result.Failed,
	}).Info("Pool distributed")

	return result, nil
}

// createRows writes the pending payout rows of an allocation. Zero-amount
// shares get no row.
func (s *PoolService) createRows(ctx context.Context, round int64, alloc pool.Allocation) ([]*pool.Distribution, error) {
	var rows []*pool.Distribution

	for _, p := range alloc.Payouts {
		if p.Amount <= 0 {
			continue
		}
		userID := p.UserID
		rank := p.Rank
		rows = append(rows, &pool.Distribution{
			PoolRound:   round,
			UserID:      &userID,
			TokenAmount: p.Amount,
			Rank:        &rank,
			Status:      pool.DistributionPending,
		})
	}
	for _, c := range alloc.Charity {
		if c.Amount <= 0 {
			continue
		}
		name := c.Name
		rows = append(rows, &pool.Distribution{
			PoolRound:   round,
			IsCharity:   true,
			CharityName: &name,
			TokenAmount: c.Amount,
			Status:      pool.DistributionPending,
		})
	}

	for _, d := range rows {
		if err := s.repo.CreateDistribution(ctx, d); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// pay settles one row. A user payout credits the ledger and completes the row
// in one transaction; the conditional status update makes a second concurrent
// payment roll back. Charity shares leave the token economy and complete
// without a ledger credit.
func (s *PoolService) pay(ctx context.Context, d *pool.Distribution) bool {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if !d.IsCharity && d.UserID != nil {
			desc := fmt.Sprintf("Pool round %d payout", d.PoolRound)
			if d.Rank != nil {
				desc = fmt.Sprintf("Pool round %d payout (rank %d)", d.PoolRound, *d.Rank)
			}
			if _, err := s.ledger.Credit(ctx, *d.UserID, ledger.ActivityPoolPayout, d.TokenAmount, desc); err != nil {
				return err
			}
		}

		changed, err := s.repo.TransitionDistribution(ctx, d.ID, pool.DistributionCompleted, nil)
		if err != nil {
			return err
		}
		if !changed {
			return errors.Conflict("Distribution already settled")
		}
		return nil
	})

	if err == nil {
		d.Status = pool.DistributionCompleted
		d.Attempts++
		d.LastError = nil
		metrics.RecordPoolPayout(string(pool.DistributionCompleted))
		return true
	}

	if errors.HasCode(err, errors.ErrCodeConflict) {
		// Settled by a concurrent payer
		d.Status = pool.DistributionCompleted
		return true
	}

	msg := err.Error()
	if _, terr := s.repo.TransitionDistribution(ctx, d.ID, pool.DistributionFailed, &msg); terr != nil {
		s.logger.WithFields(map[string]interface{}{
			"distribution_id": d.ID,
		}).ErrorWithErr(terr, "Failed to record payout failure")
	}
	d.Status = pool.DistributionFailed
	d.Attempts++
	d.LastError = &msg
	metrics.RecordPoolPayout(string(pool.DistributionFailed))

	s.logger.ForRound(d.PoolRound).WithFields(map[string]interface{}{
		"distribution_id": d.ID,
		"amount":          d.TokenAmount,
	}).WarnWithErr(err, "Pool payout failed")

	return false
}

// SweepPayouts retries failed rows below the attempt limit and pending rows
// left behind by an interrupted distribution
func (s *PoolService) SweepPayouts(ctx context.Context, now time.Time) (*pool.SweepResult, error) {
	rows, err := s.repo.ListRetryable(ctx, now.Add(-s.economy.PendingTimeout), s.economy.MaxPayoutAttempts)
	if err != nil {
		return nil, err
	}

	result := &pool.SweepResult{}
	for _, d := range rows {
		result.Retried++
		if s.pay(ctx, d) {
			result.Completed++
		} else {
			result.Failed++
		}
	}

	if result.Retried > 0 {
		s.logger.WithFields(map[string]interface{}{
			"retried":   result.Retried,
			"completed": result.Completed,
			"failed":    result.Failed,
		}).Info("Payout sweep finished")
	}

	return result, nil
}

// UpdateSettings changes the tunable parameters
func (s *PoolService) UpdateSettings(ctx context.Context, settings pool.Settings) (*pool.Pool, error) {
	if settings.CharityPercentage < 0 || settings.TopContributorsPercentage < 0 ||
		settings.CharityPercentage+settings.TopContributorsPercentage != 100 {
		return nil, errors.BadRequest("Charity and top contributor percentages must sum to 100")
	}
	if settings.TargetTokens <= 0 {
		return nil, errors.BadRequest("Target tokens must be positive")
	}
	if settings.MaxTopContributors < 1 {
		return nil, errors.BadRequest("Max top contributors must be at least 1")
	}

	if err := s.repo.UpdateSettings(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"target_tokens":        settings.TargetTokens,
		"charity_percentage":   settings.CharityPercentage,
		"max_top_contributors": settings.MaxTopContributors,
	}).Info("Pool settings updated")

	return s.repo.Get(ctx)
}
