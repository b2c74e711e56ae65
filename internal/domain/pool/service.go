package pool

import (
	"context"
	"time"
)

// Service defines the pool engine operations
type Service interface {
	// Init creates the pool row on first start
	Init(ctx context.Context) error

	// Get returns the pool state
	Get(ctx context.Context) (*Pool, error)

	// Contributors returns ranked contributors of a round; round 0 means current
	Contributors(ctx context.Context, round int64) ([]ContributorTotal, error)

	// Distributions returns payout rows of a round; round 0 means the last closed one
	Distributions(ctx context.Context, round int64) ([]*Distribution, error)

	// Distribute closes the round when a trigger holds (or force is set) and
	// pays every row. It is a no-op otherwise.
	Distribute(ctx context.Context, now time.Time, force bool) (*DistributionResult, error)

	// SweepPayouts retries failed and stale pending payout rows
	SweepPayouts(ctx context.Context, now time.Time) (*SweepResult, error)

	// UpdateSettings changes the tunable parameters
	UpdateSettings(ctx context.Context, s Settings) (*Pool, error)
}
