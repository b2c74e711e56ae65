package subscription

import "context"

// Repository defines the interface for subscription data access
type Repository interface {
	// Create creates the subscription row of a user
	Create(ctx context.Context, sub *Subscription) error

	// GetByUserID retrieves the subscription of a user
	GetByUserID(ctx context.Context, userID int64) (*Subscription, error)

	// Update persists every mutable column of sub
	Update(ctx context.Context, sub *Subscription) error
}
