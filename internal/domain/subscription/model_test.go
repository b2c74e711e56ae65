package subscription

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want Entitlement
	}{
		{name: "nil subscription is free", sub: nil, want: EntitlementFree},
		{name: "free tier", sub: &Subscription{Tier: TierFree}, want: EntitlementFree},
		{name: "lifetime never expires", sub: &Subscription{Tier: TierLifetime, IsActive: false}, want: EntitlementLifetime},
		{name: "trial active", sub: &Subscription{Tier: TierTrial, IsActive: true, ExpiryDate: &future}, want: EntitlementTrialActive},
		{name: "trial expired", sub: &Subscription{Tier: TierTrial, IsActive: false, ExpiryDate: &past}, want: EntitlementTrialExpired},
		{
			name: "stale active flag on expired premium",
			sub:  &Subscription{Tier: TierPremium, IsActive: true, ExpiryDate: &past},
			want: EntitlementPremiumExpired,
		},
		{
			name: "stale inactive flag on unexpired premium",
			sub:  &Subscription{Tier: TierPremium, IsActive: false, ExpiryDate: &future},
			want: EntitlementPremiumActive,
		},
		{name: "family active", sub: &Subscription{Tier: TierFamily, IsActive: true, ExpiryDate: &future}, want: EntitlementFamilyActive},
		{name: "family expired resolves to premium-expired", sub: &Subscription{Tier: TierFamily, IsActive: true, ExpiryDate: &past}, want: EntitlementPremiumExpired},
		{name: "premium without expiry is expired", sub: &Subscription{Tier: TierPremium, IsActive: true}, want: EntitlementPremiumExpired},
		{name: "expiry exactly now is expired", sub: &Subscription{Tier: TierTrial, IsActive: true, ExpiryDate: &now}, want: EntitlementTrialExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.sub, now); got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeal(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		sub        *Subscription
		wantNil    bool
		wantActive bool
	}{
		{
			name:    "consistent active row",
			sub:     &Subscription{Tier: TierPremium, IsActive: true, ExpiryDate: &future, RenewsAt: &future},
			wantNil: true,
		},
		{
			name:       "expired row still flagged active",
			sub:        &Subscription{Tier: TierPremium, IsActive: true, ExpiryDate: &past, RenewsAt: &past},
			wantActive: false,
		},
		{
			name:       "unexpired row flagged inactive",
			sub:        &Subscription{Tier: TierTrial, IsActive: false, ExpiryDate: &future},
			wantActive: true,
		},
		{
			name:    "free row inactive",
			sub:     &Subscription{Tier: TierFree, IsActive: false},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Heal(tt.sub, Resolve(tt.sub, now))
			if tt.wantNil {
				if c != nil {
					t.Errorf("Heal() = %+v, want nil", c)
				}
				return
			}
			if c == nil {
				t.Fatal("Heal() = nil, want a correction")
			}
			c.Apply(tt.sub)
			if tt.sub.IsActive != tt.wantActive {
				t.Errorf("IsActive after heal = %v, want %v", tt.sub.IsActive, tt.wantActive)
			}
			if !tt.wantActive && tt.sub.RenewsAt != nil {
				t.Error("RenewsAt should be cleared on an expired subscription")
			}
			if Heal(tt.sub, Resolve(tt.sub, now)) != nil {
				t.Error("Heal() should be idempotent after Apply")
			}
		})
	}
}

func TestCanStartTrial(t *testing.T) {
	if !CanStartTrial(&Subscription{Tier: TierFree}) {
		t.Error("fresh subscription should be trial eligible")
	}
	if CanStartTrial(&Subscription{Tier: TierFree, HadTrialBefore: true}) {
		t.Error("subscription with a past trial should not be eligible")
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in36h := now.Add(36 * time.Hour)
	in7d := now.Add(7 * 24 * time.Hour)

	if got := DaysRemaining(&Subscription{ExpiryDate: &in36h}, now); got != 2 {
		t.Errorf("DaysRemaining(36h) = %d, want 2", got)
	}
	if got := DaysRemaining(&Subscription{ExpiryDate: &in7d}, now); got != 7 {
		t.Errorf("DaysRemaining(7d) = %d, want 7", got)
	}
	if got := DaysRemaining(&Subscription{Tier: TierLifetime}, now); got != 0 {
		t.Errorf("DaysRemaining(lifetime) = %d, want 0", got)
	}
}
