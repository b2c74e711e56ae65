package transfer

import (
	"context"
	"time"
)

// Service defines the transfer validator operations
type Service interface {
	// Transfer moves amount from one user to another
	Transfer(ctx context.Context, fromUserID, toUserID, amount int64, transferType Type) (*Transfer, error)

	// Get returns a transfer visible to userID
	Get(ctx context.Context, id, userID int64) (*Transfer, error)

	// List lists a user's transfers
	List(ctx context.Context, userID int64, filter Filter, limit, offset int) ([]*Transfer, int64, error)

	// Cancel cancels a pending transfer sent by userID
	Cancel(ctx context.Context, id, userID int64) (*Transfer, error)

	// SweepPending fails pending transfers older than the timeout
	SweepPending(ctx context.Context, now time.Time) (int, error)
}
