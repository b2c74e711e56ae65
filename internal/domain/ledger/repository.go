package ledger

import (
	"context"
	"time"
)

// Repository defines ledger data access. Append locks the user's balance row,
// validates the resulting balance and writes the ledger row and the balance in
// one transaction.
type Repository interface {
	// Append applies entry.TokensEarned to the user's balance and appends the
	// row. It fails with InsufficientTokens when the balance would go
	// negative and LedgerFrozen when the user is frozen.
	Append(ctx context.Context, entry *RewardActivity) error

	// SetBalance overwrites the stored balance. It is only used to restore a
	// frozen user's balance from the ledger sum.
	SetBalance(ctx context.Context, userID int64, balance int64) error

	// GetBalance returns the stored balance and frozen flag
	GetBalance(ctx context.Context, userID int64) (*Balance, error)

	// List returns a user's ledger rows, newest first
	List(ctx context.Context, userID int64, limit, offset int) ([]*RewardActivity, int64, error)

	// Sum returns SUM(tokens_earned) for a user
	Sum(ctx context.Context, userID int64) (int64, error)

	// CountSince counts a user's rows of one type created at or after since
	CountSince(ctx context.Context, userID int64, activityType ActivityType, since time.Time) (int, error)

	// FindDivergent returns every user whose balance differs from the ledger sum
	FindDivergent(ctx context.Context) ([]Divergence, error)

	// CountUsers returns the number of users checked by a full reconciliation
	CountUsers(ctx context.Context) (int, error)
}
