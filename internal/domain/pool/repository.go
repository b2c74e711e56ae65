package pool

import (
	"context"
	"time"
)

// Repository defines pool data access
type Repository interface {
	// Ensure creates the pool row from defaults unless it exists
	Ensure(ctx context.Context, defaults *Pool) error

	// Get returns the pool row
	Get(ctx context.Context) (*Pool, error)

	// GetForUpdate returns the pool row locked for the open transaction
	GetForUpdate(ctx context.Context) (*Pool, error)

	// AddContribution inserts c and adds c.TokenAmount to the pool total, both
	// guarded by c.PoolRound. It fails with PoolRoundMismatch when the pool
	// has moved to another round.
	AddContribution(ctx context.Context, c *Contribution) (*Pool, error)

	// ContributorTotals aggregates a round's contributions per user
	ContributorTotals(ctx context.Context, round int64) ([]ContributorTotal, error)

	// CloseRound zeroes the total and moves round -> round+1
	CloseRound(ctx context.Context, round int64, next *time.Time, now time.Time) error

	// Reschedule sets the next distribution date without closing the round
	Reschedule(ctx context.Context, round int64, next *time.Time) error

	// UpdateSettings updates the tunable parameters
	UpdateSettings(ctx context.Context, s Settings) error

	// CreateDistribution inserts a payout row
	CreateDistribution(ctx context.Context, d *Distribution) error

	// GetDistribution returns one payout row
	GetDistribution(ctx context.Context, id int64) (*Distribution, error)

	// TransitionDistribution moves a row to status if its current status can
	// transition there, incrementing attempts. It reports whether a row changed.
	TransitionDistribution(ctx context.Context, id int64, to DistributionStatus, lastErr *string) (bool, error)

	// ListDistributions lists a round's payout rows by rank
	ListDistributions(ctx context.Context, round int64) ([]*Distribution, error)

	// ListRetryable returns failed rows under maxAttempts and pending rows
	// last touched before staleBefore
	ListRetryable(ctx context.Context, staleBefore time.Time, maxAttempts int) ([]*Distribution, error)
}
