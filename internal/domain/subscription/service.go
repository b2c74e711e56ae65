package subscription

import "context"

// Service defines entitlement resolution and lifecycle operations
type Service interface {
	// EnsureForUser creates a free subscription if the user has none
	EnsureForUser(ctx context.Context, userID int64) (*Subscription, error)

	// GetStatus resolves the entitlement and heals stale stored flags
	GetStatus(ctx context.Context, userID int64) (*Status, error)

	// GetEntitlement is GetStatus without the subscription payload
	GetEntitlement(ctx context.Context, userID int64) (Entitlement, error)

	// StartTrial starts the one-time trial
	StartTrial(ctx context.Context, userID int64) (*Status, error)

	// Subscribe starts or extends a paid plan by periods
	Subscribe(ctx context.Context, userID int64, tier Tier, periods int) (*Status, error)

	// Cancel stops renewal; access lasts until expiry
	Cancel(ctx context.Context, userID int64) (*Status, error)

	// RequireActive fails unless the user holds an active entitlement
	RequireActive(ctx context.Context, userID int64) error
}
