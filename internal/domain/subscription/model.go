package subscription

import "time"

// Tier is the stored subscription tier
type Tier string

const (
	TierFree     Tier = "free"
	TierTrial    Tier = "trial"
	TierPremium  Tier = "premium"
	TierFamily   Tier = "family"
	TierLifetime Tier = "lifetime"
)

// IsValid checks if the tier is valid
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierTrial, TierPremium, TierFamily, TierLifetime:
		return true
	}
	return false
}

// Expires reports whether the tier carries an expiry date
func (t Tier) Expires() bool {
	return t == TierTrial || t == TierPremium || t == TierFamily
}

// IsPaid reports whether the tier is a purchasable plan
func (t Tier) IsPaid() bool {
	return t == TierPremium || t == TierFamily || t == TierLifetime
}

// Entitlement is the resolved access level at a point in time
type Entitlement string

const (
	EntitlementFree           Entitlement = "free"
	EntitlementTrialActive    Entitlement = "trial-active"
	EntitlementTrialExpired   Entitlement = "trial-expired"
	EntitlementPremiumActive  Entitlement = "premium-active"
	EntitlementPremiumExpired Entitlement = "premium-expired"
	EntitlementFamilyActive   Entitlement = "family-active"
	EntitlementLifetime       Entitlement = "lifetime"
)

// IsActive reports whether the entitlement grants premium access
func (e Entitlement) IsActive() bool {
	switch e {
	case EntitlementTrialActive, EntitlementPremiumActive, EntitlementFamilyActive, EntitlementLifetime:
		return true
	}
	return false
}

// IsExpired reports whether the entitlement is a lapsed plan
func (e Entitlement) IsExpired() bool {
	return e == EntitlementTrialExpired || e == EntitlementPremiumExpired
}

// Subscription is the single subscription row of a user
type Subscription struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Tier           Tier       `json:"tier"`
	IsActive       bool       `json:"is_active"`
	StartDate      time.Time  `json:"start_date"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	RenewsAt       *time.Time `json:"renews_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	HadTrialBefore bool       `json:"had_trial_before"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Status is the API view of a user's subscription
type Status struct {
	Subscription  *Subscription `json:"subscription"`
	Entitlement   Entitlement   `json:"entitlement"`
	DaysRemaining int           `json:"days_remaining"`
	// InheritedFrom is set when the entitlement comes from a family plan owner
	InheritedFrom *int64 `json:"inherited_from,omitempty"`
}

// Resolve returns the authoritative entitlement of sub at now. The stored
// IsActive flag is never consulted. A missing expiry on an expiring tier
// resolves to the expired variant.
func Resolve(sub *Subscription, now time.Time) Entitlement {
	if sub == nil {
		return EntitlementFree
	}

	switch sub.Tier {
	case TierLifetime:
		return EntitlementLifetime
	case TierTrial:
		if unexpired(sub.ExpiryDate, now) {
			return EntitlementTrialActive
		}
		return EntitlementTrialExpired
	case TierPremium:
		if unexpired(sub.ExpiryDate, now) {
			return EntitlementPremiumActive
		}
		return EntitlementPremiumExpired
	case TierFamily:
		if unexpired(sub.ExpiryDate, now) {
			return EntitlementFamilyActive
		}
		return EntitlementPremiumExpired
	default:
		return EntitlementFree
	}
}

func unexpired(expiry *time.Time, now time.Time) bool {
	return expiry != nil && expiry.After(now)
}

// CanStartTrial reports whether a trial may be started on sub
func CanStartTrial(sub *Subscription) bool {
	return sub == nil || !sub.HadTrialBefore
}

// DaysRemaining returns whole days left before expiry, rounded up
func DaysRemaining(sub *Subscription, now time.Time) int {
	if sub == nil || sub.ExpiryDate == nil || !sub.ExpiryDate.After(now) {
		return 0
	}
	left := sub.ExpiryDate.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Correction describes the flag fixes the lifecycle mutator must persist
type Correction struct {
	SetActive  bool
	ClearRenew bool
}

// Heal compares the stored flags with the resolved entitlement and returns the
// correction to apply, or nil when the row is already consistent.
func Heal(sub *Subscription, ent Entitlement) *Correction {
	if sub == nil {
		return nil
	}
	want := ent.IsActive()
	if sub.IsActive == want && (want || sub.RenewsAt == nil) {
		return nil
	}
	c := &Correction{SetActive: want}
	if !want {
		c.ClearRenew = true
	}
	return c
}

// Apply applies c to sub in place
func (c *Correction) Apply(sub *Subscription) {
	sub.IsActive = c.SetActive
	if c.ClearRenew {
		sub.RenewsAt = nil
	}
}
