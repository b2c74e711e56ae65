package transfer

import (
	"context"
	"time"
)

// Repository defines transfer data access
type Repository interface {
	// Create inserts a transfer row with its initial status
	Create(ctx context.Context, t *Transfer) error

	// GetByID retrieves a transfer
	GetByID(ctx context.Context, id int64) (*Transfer, error)

	// Transition moves a transfer from `from` to `to`. It reports false when
	// the row was not in `from`.
	Transition(ctx context.Context, id int64, from, to Status, reason *string) (bool, error)

	// ListByUser lists transfers sent or received by a user, newest first
	ListByUser(ctx context.Context, userID int64, filter Filter, limit, offset int) ([]*Transfer, int64, error)

	// ListPendingBefore lists pending transfers created before cutoff
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*Transfer, error)
}
