package services

import (
	"context"
	"time"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

// SubscriptionService implements subscription.Service. Entitlements are always
// resolved from tier and expiry; the stored flags are healed on read.
type SubscriptionService struct {
	repo          subscription.Repository
	users         user.Repository
	tx            Transactor
	trialDuration time.Duration
	premiumPeriod time.Duration
	logger        *logger.Logger
	now           Clock
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	repo subscription.Repository,
	users user.Repository,
	tx Transactor,
	economy config.EconomyConfig,
	log *logger.Logger,
) subscription.Service {
	return &SubscriptionService{
		repo:          repo,
		users:         users,
		tx:            tx,
		trialDuration: economy.TrialDuration,
		premiumPeriod: economy.PremiumPeriod,
		logger:        log,
		now:           utcNow,
	}
}

// EnsureForUser creates a free subscription if the user has none
func (s *SubscriptionService) EnsureForUser(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return sub, nil
	}
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	sub = &subscription.Subscription{
		UserID:    userID,
		Tier:      subscription.TierFree,
		StartDate: s.now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetStatus resolves the entitlement and heals stale stored flags
func (s *SubscriptionService) GetStatus(ctx context.Context, userID int64) (*subscription.Status, error) {
	sub, err := s.EnsureForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ent := subscription.Resolve(sub, now)
	if err := s.heal(ctx, sub, ent); err != nil {
		return nil, err
	}

	status := &subscription.Status{
		Subscription:  sub,
		Entitlement:   ent,
		DaysRemaining: subscription.DaysRemaining(sub, now),
	}

	if !ent.IsActive() {
		if err := s.inheritFamily(ctx, userID, status, now); err != nil {
			return nil, err
		}
	}

	return status, nil
}

// inheritFamily grants family-active to members of an active family plan
func (s *SubscriptionService) inheritFamily(ctx context.Context, userID int64, status *subscription.Status, now time.Time) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.FamilyPlanOwnerID == nil || *u.FamilyPlanOwnerID == userID {
		return nil
	}

	owner, err := s.repo.GetByUserID(ctx, *u.FamilyPlanOwnerID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	if subscription.Resolve(owner, now) == subscription.EntitlementFamilyActive {
		status.Entitlement = subscription.EntitlementFamilyActive
		status.DaysRemaining = subscription.DaysRemaining(owner, now)
		status.InheritedFrom = u.FamilyPlanOwnerID
	}
	return nil
}

// heal persists flag corrections and the user mirror in one transaction when
// the stored row disagrees with ent. sub is only updated once both writes
// commit.
func (s *SubscriptionService) heal(ctx context.Context, sub *subscription.Subscription, ent subscription.Entitlement) error {
	c := subscription.Heal(sub, ent)
	if c == nil {
		return nil
	}

	healed := *sub
	c.Apply(&healed)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, &healed); err != nil {
			return err
		}
		return s.mirror(ctx, &healed, ent)
	})
	if err != nil {
		return err
	}
	*sub = healed

	metrics.RecordEntitlementHeal(string(ent))
	s.logger.WithFields(map[string]interface{}{
		"user_id":     sub.UserID,
		"tier":        sub.Tier,
		"entitlement": ent,
		"is_active":   sub.IsActive,
	}).Info("Subscription flags corrected")

	return nil
}

// mirror copies the subscription state onto the user row
func (s *SubscriptionService) mirror(ctx context.Context, sub *subscription.Subscription, ent subscription.Entitlement) error {
	u, err := s.users.GetByID(ctx, sub.UserID)
	if err != nil {
		return err
	}

	state := user.PremiumState{
		IsPremium:      ent.IsActive(),
		TrialStartDate: u.TrialStartDate,
		TrialEndDate:   u.TrialEndDate,
		CancelledAt:    sub.CancelledAt,
	}
	if sub.Tier != subscription.TierFree {
		tier := string(sub.Tier)
		state.PremiumPlanType = &tier
		state.PremiumExpiryDate = sub.ExpiryDate
	}
	if sub.Tier == subscription.TierTrial {
		start := sub.StartDate
		state.TrialStartDate = &start
		state.TrialEndDate = sub.ExpiryDate
	}

	return s.users.UpdatePremiumState(ctx, sub.UserID, state)
}

// GetEntitlement is GetStatus without the subscription payload
func (s *SubscriptionService) GetEntitlement(ctx context.Context, userID int64) (subscription.Entitlement, error) {
	status, err := s.GetStatus(ctx, userID)
	if err != nil {
		return "", err
	}
	return status.Entitlement, nil
}

// StartTrial starts the one-time trial
func (s *SubscriptionService) StartTrial(ctx context.Context, userID int64) (*subscription.Status, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.EnsureForUser(ctx, userID)
		if err != nil {
			return err
		}

		if !subscription.CanStartTrial(sub) {
			return errors.TrialAlreadyUsed()
		}

		now := s.now()
		if sub.Tier.IsPaid() && subscription.Resolve(sub, now).IsActive() {
			return errors.Conflict("A paid plan is already active")
		}

		expiry := now.Add(s.trialDuration)
		sub.Tier = subscription.TierTrial
		sub.IsActive = true
		sub.StartDate = now
		sub.ExpiryDate = &expiry
		sub.RenewsAt = nil
		sub.CancelledAt = nil
		sub.HadTrialBefore = true

		if err := s.repo.Update(ctx, sub); err != nil {
			return err
		}
		return s.mirror(ctx, sub, subscription.EntitlementTrialActive)
	})
	if err != nil {
		return nil, err
	}

	s.logger.ForUser(userID).Info("Trial started")

	return s.GetStatus(ctx, userID)
}

// Subscribe starts or extends a paid plan. Premium and family periods stack on
// top of an unexpired paid plan.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64, tier subscription.Tier, periods int) (*subscription.Status, error) {
	if !tier.IsPaid() {
		return nil, errors.BadRequest("Tier must be premium, family or lifetime")
	}
	if periods <= 0 {
		periods = 1
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.EnsureForUser(ctx, userID)
		if err != nil {
			return err
		}
		if sub.Tier == subscription.TierLifetime {
			return errors.Conflict("Lifetime plan is already active")
		}

		now := s.now()
		sub.IsActive = true
		sub.CancelledAt = nil

		if tier == subscription.TierLifetime {
			sub.Tier = subscription.TierLifetime
			sub.StartDate = now
			sub.ExpiryDate = nil
			sub.RenewsAt = nil
		} else {
			base := now
			if sub.Tier.IsPaid() && sub.ExpiryDate != nil && sub.ExpiryDate.After(now) {
				base = *sub.ExpiryDate
			} else {
				sub.StartDate = now
			}
			expiry := base.Add(time.Duration(periods) * s.premiumPeriod)
			renews := expiry
			sub.Tier = tier
			sub.ExpiryDate = &expiry
			sub.RenewsAt = &renews
		}

		if err := s.repo.Update(ctx, sub); err != nil {
			return err
		}
		return s.mirror(ctx, sub, subscription.Resolve(sub, now))
	})
	if err != nil {
		return nil, err
	}

	s.logger.ForUser(userID).WithFields(map[string]interface{}{
		"tier":    tier,
		"periods": periods,
	}).Info("Subscription purchased")

	return s.GetStatus(ctx, userID)
}

// Cancel stops renewal; access lasts until expiry
func (s *SubscriptionService) Cancel(ctx context.Context, userID int64) (*subscription.Status, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.EnsureForUser(ctx, userID)
		if err != nil {
			return err
		}

		switch sub.Tier {
		case subscription.TierFree:
			return errors.Conflict("No subscription to cancel")
		case subscription.TierLifetime:
			return errors.Conflict("Lifetime plans cannot be cancelled")
		}
		if sub.CancelledAt != nil {
			return nil
		}

		now := s.now()
		sub.CancelledAt = &now
		sub.RenewsAt = nil

		if err := s.repo.Update(ctx, sub); err != nil {
			return err
		}
		return s.mirror(ctx, sub, subscription.Resolve(sub, now))
	})
	if err != nil {
		return nil, err
	}

	s.logger.ForUser(userID).Info("Subscription cancelled")

	return s.GetStatus(ctx, userID)
}

// RequireActive fails with SubscriptionExpired for lapsed plans and
// Forbidden for free users
func (s *SubscriptionService) RequireActive(ctx context.Context, userID int64) error {
	ent, err := s.GetEntitlement(ctx, userID)
	if err != nil {
		return err
	}
	if ent.IsActive() {
		return nil
	}
	if ent.IsExpired() {
		return errors.SubscriptionExpired(string(ent))
	}
	return errors.Forbidden("A premium subscription is required")
}
