package ledger

import "context"

// Service defines the reward ledger operations
type Service interface {
	// Credit adds amount (> 0) to the user's balance with a ledger row
	Credit(ctx context.Context, userID int64, activityType ActivityType, amount int64, description string) (*RewardActivity, error)

	// Debit removes amount (> 0, <= balance) from the user's balance with a
	// negative ledger row
	Debit(ctx context.Context, userID int64, activityType ActivityType, amount int64, reason string) (*RewardActivity, error)

	// Reward credits the scheduled amount for a user-claimable activity
	Reward(ctx context.Context, userID int64, activityType ActivityType) (*RewardActivity, error)

	// Balance returns the user's current balance
	Balance(ctx context.Context, userID int64) (*Balance, error)

	// History returns ledger rows, newest first
	History(ctx context.Context, userID int64, limit, offset int) ([]*RewardActivity, int64, error)

	// Reconcile checks balance == SUM(ledger) for one user, freezing on divergence
	Reconcile(ctx context.Context, userID int64) (*ReconcileResult, error)

	// ReconcileAll checks every user
	ReconcileAll(ctx context.Context) (*ReconcileReport, error)

	// Unfreeze lifts a freeze once the balance matches the ledger again
	Unfreeze(ctx context.Context, userID int64) error
}
