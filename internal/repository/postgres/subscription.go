package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

// SubscriptionRepository implements subscription.Repository
type SubscriptionRepository struct {
	*Store
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(store *Store) subscription.Repository {
	return &SubscriptionRepository{Store: store}
}

// Create creates the subscription row of a user
func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}

	id, err := r.insert(ctx, `
		INSERT INTO subscriptions (user_id, tier, is_active, start_date, expiry_date, renews_at,
			cancelled_at, had_trial_before, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.UserID, string(sub.Tier), sub.IsActive, unix(sub.StartDate), unixPtr(sub.ExpiryDate),
		unixPtr(sub.RenewsAt), unixPtr(sub.CancelledAt), sub.HadTrialBefore, unix(now), unix(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Subscription already exists")
		}
		return errors.DatabaseError("Failed to create subscription", err)
	}

	sub.ID = id
	return nil
}

// GetByUserID retrieves the subscription of a user
func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	var tier string
	var start, createdAt, updatedAt int64
	var expiry, renews, cancelled sql.NullInt64

	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id, user_id, tier, is_active, start_date, expiry_date, renews_at, cancelled_at,
			had_trial_before, created_at, updated_at
		FROM subscriptions WHERE user_id = $1`+r.forUpdateInTx(ctx), userID,
	).Scan(&sub.ID, &sub.UserID, &tier, &sub.IsActive, &start, &expiry, &renews, &cancelled,
		&sub.HadTrialBefore, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Subscription")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscription", err)
	}

	sub.Tier = subscription.Tier(tier)
	sub.StartDate = fromUnix(start)
	sub.ExpiryDate = fromNullUnix(expiry)
	sub.RenewsAt = fromNullUnix(renews)
	sub.CancelledAt = fromNullUnix(cancelled)
	sub.CreatedAt = fromUnix(createdAt)
	sub.UpdatedAt = fromUnix(updatedAt)

	return &sub, nil
}

// Update persists every mutable column of sub
func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()

	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE subscriptions
		SET tier = $1, is_active = $2, start_date = $3, expiry_date = $4, renews_at = $5,
			cancelled_at = $6, had_trial_before = $7, updated_at = $8
		WHERE id = $9`,
		string(sub.Tier), sub.IsActive, unix(sub.StartDate), unixPtr(sub.ExpiryDate),
		unixPtr(sub.RenewsAt), unixPtr(sub.CancelledAt), sub.HadTrialBefore, unix(sub.UpdatedAt), sub.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update subscription", err)
	}
	return requireRow(res, "Subscription")
}
