package services

import (
	"context"
	"testing"
	"time"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/internal/testutil"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type subscriptionFixture struct {
	service *SubscriptionService
	subs    *testutil.MockSubscriptionRepository
	users   *testutil.MockUserRepository
	clock   *time.Time
}

func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()
	users := testutil.NewMockUserRepository()
	subs := testutil.NewMockSubscriptionRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	svc := NewSubscriptionService(subs, users, &testutil.MockTransactor{}, config.DefaultEconomy(), log).(*SubscriptionService)
	clock := testNow
	svc.now = func() time.Time { return clock }

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if err := users.Create(context.Background(), &user.User{Email: email, Role: user.RoleUser}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	return &subscriptionFixture{service: svc, subs: subs, users: users, clock: &clock}
}

func (f *subscriptionFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestSubscriptionService_StartTrial(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	status, err := f.service.StartTrial(ctx, 1)
	if err != nil {
		t.Fatalf("StartTrial() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementTrialActive {
		t.Errorf("Entitlement = %s, want %s", status.Entitlement, subscription.EntitlementTrialActive)
	}
	if status.DaysRemaining != 7 {
		t.Errorf("DaysRemaining = %d, want 7", status.DaysRemaining)
	}
	if !f.users.Users[1].IsPremium {
		t.Error("user row should mirror the active trial")
	}
	if f.users.Users[1].TrialEndDate == nil {
		t.Error("user row should carry the trial end date")
	}

	_, err = f.service.StartTrial(ctx, 1)
	if !errors.HasCode(err, errors.ErrCodeTrialAlreadyUsed) {
		t.Errorf("second StartTrial() error = %v, want %s", err, errors.ErrCodeTrialAlreadyUsed)
	}
}

func TestSubscriptionService_TrialExpiryHeals(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	if _, err := f.service.StartTrial(ctx, 1); err != nil {
		t.Fatalf("StartTrial() error = %v", err)
	}

	f.advance(8 * 24 * time.Hour)

	status, err := f.service.GetStatus(ctx, 1)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementTrialExpired {
		t.Errorf("Entitlement = %s, want %s", status.Entitlement, subscription.EntitlementTrialExpired)
	}
	if f.subs.Subscriptions[1].IsActive {
		t.Error("stored IsActive should be healed to false")
	}
	if f.users.Users[1].IsPremium {
		t.Error("user IsPremium should be healed to false")
	}

	err = f.service.RequireActive(ctx, 1)
	if !errors.HasCode(err, errors.ErrCodeSubscriptionExpired) {
		t.Errorf("RequireActive() error = %v, want %s", err, errors.ErrCodeSubscriptionExpired)
	}
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *subscriptionFixture)
		tier    subscription.Tier
		periods int
		want    subscription.Entitlement
		wantErr string
		days    int
	}{
		{
			name:    "premium from free",
			tier:    subscription.TierPremium,
			periods: 1,
			want:    subscription.EntitlementPremiumActive,
			days:    30,
		},
		{
			name: "premium stacks on an unexpired plan",
			setup: func(f *subscriptionFixture) {
				if _, err := f.service.Subscribe(context.Background(), 1, subscription.TierPremium, 1); err != nil {
					t.Fatalf("Subscribe() error = %v", err)
				}
			},
			tier:    subscription.TierPremium,
			periods: 2,
			want:    subscription.EntitlementPremiumActive,
			days:    90,
		},
		{
			name:    "lifetime never expires",
			tier:    subscription.TierLifetime,
			periods: 1,
			want:    subscription.EntitlementLifetime,
		},
		{
			name:    "free is not purchasable",
			tier:    subscription.TierFree,
			wantErr: errors.ErrCodeBadRequest,
		},
		{
			name: "lifetime cannot be replaced",
			setup: func(f *subscriptionFixture) {
				if _, err := f.service.Subscribe(context.Background(), 1, subscription.TierLifetime, 1); err != nil {
					t.Fatalf("Subscribe() error = %v", err)
				}
			},
			tier:    subscription.TierPremium,
			wantErr: errors.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubscriptionFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			status, err := f.service.Subscribe(context.Background(), 1, tt.tier, tt.periods)
			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Fatalf("Subscribe() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Subscribe() error = %v", err)
			}
			if status.Entitlement != tt.want {
				t.Errorf("Entitlement = %s, want %s", status.Entitlement, tt.want)
			}
			if status.DaysRemaining != tt.days {
				t.Errorf("DaysRemaining = %d, want %d", status.DaysRemaining, tt.days)
			}
		})
	}
}

func TestSubscriptionService_TrialAfterPaidPlan(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	if _, err := f.service.Subscribe(ctx, 1, subscription.TierPremium, 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if _, err := f.service.StartTrial(ctx, 1); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("StartTrial() error = %v, want %s", err, errors.ErrCodeConflict)
	}
}

func TestSubscriptionService_Cancel(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	if _, err := f.service.Cancel(ctx, 1); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("Cancel() on free error = %v, want %s", err, errors.ErrCodeConflict)
	}

	if _, err := f.service.Subscribe(ctx, 1, subscription.TierPremium, 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	status, err := f.service.Cancel(ctx, 1)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementPremiumActive {
		t.Errorf("Entitlement = %s, cancelled plans stay active until expiry", status.Entitlement)
	}
	if status.Subscription.RenewsAt != nil {
		t.Error("RenewsAt should be cleared")
	}
	if status.Subscription.CancelledAt == nil {
		t.Error("CancelledAt should be set")
	}

	if _, err := f.service.Cancel(ctx, 1); err != nil {
		t.Errorf("second Cancel() error = %v, want idempotent", err)
	}

	f.advance(31 * 24 * time.Hour)
	if ent, _ := f.service.GetEntitlement(ctx, 1); ent != subscription.EntitlementPremiumExpired {
		t.Errorf("Entitlement after expiry = %s, want %s", ent, subscription.EntitlementPremiumExpired)
	}
}

func TestSubscriptionService_FamilyInheritance(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	if _, err := f.service.Subscribe(ctx, 1, subscription.TierFamily, 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := f.users.UpsertFamilyRelationship(ctx, &user.FamilyRelationship{OwnerID: 1, MemberID: 2}); err != nil {
		t.Fatalf("UpsertFamilyRelationship() error = %v", err)
	}

	status, err := f.service.GetStatus(ctx, 2)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementFamilyActive {
		t.Errorf("member Entitlement = %s, want %s", status.Entitlement, subscription.EntitlementFamilyActive)
	}
	if status.InheritedFrom == nil || *status.InheritedFrom != 1 {
		t.Errorf("InheritedFrom = %v, want 1", status.InheritedFrom)
	}

	f.advance(31 * 24 * time.Hour)
	status, err = f.service.GetStatus(ctx, 2)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementFree {
		t.Errorf("member Entitlement after owner expiry = %s, want %s", status.Entitlement, subscription.EntitlementFree)
	}
}

func TestSubscriptionService_RequireActive(t *testing.T) {
	f := newSubscriptionFixture(t)

	err := f.service.RequireActive(context.Background(), 1)
	if !errors.HasCode(err, errors.ErrCodeForbidden) {
		t.Errorf("RequireActive() on free error = %v, want %s", err, errors.ErrCodeForbidden)
	}
}

// mirrorFailingUsers fails premium-state writes while err is set
type mirrorFailingUsers struct {
	user.Repository
	err error
}

func (u *mirrorFailingUsers) UpdatePremiumState(ctx context.Context, userID int64, state user.PremiumState) error {
	if u.err != nil {
		return u.err
	}
	return u.Repository.UpdatePremiumState(ctx, userID, state)
}

func TestSubscriptionService_HealIsAtomic(t *testing.T) {
	store := testutil.NewTestStore(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	ctx := context.Background()

	users := &mirrorFailingUsers{Repository: postgres.NewUserRepository(store)}
	subs := postgres.NewSubscriptionRepository(store)
	svc := NewSubscriptionService(subs, users, store, config.DefaultEconomy(), log).(*SubscriptionService)
	clock := testNow
	svc.now = func() time.Time { return clock }

	u := &user.User{Email: "heal@example.com", Username: "heal", Role: user.RoleUser}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.StartTrial(ctx, u.ID); err != nil {
		t.Fatalf("StartTrial() error = %v", err)
	}

	clock = clock.Add(8 * 24 * time.Hour)
	users.err = errors.DatabaseError("Failed to update user", nil)

	if _, err := svc.GetStatus(ctx, u.ID); !errors.HasCode(err, errors.ErrCodeDatabase) {
		t.Fatalf("GetStatus() error = %v, want %s", err, errors.ErrCodeDatabase)
	}
	stored, err := subs.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if !stored.IsActive {
		t.Error("subscription heal should roll back when the user mirror fails")
	}

	users.err = nil
	status, err := svc.GetStatus(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementTrialExpired || status.Subscription.IsActive {
		t.Errorf("status = %s active %v, want healed %s", status.Entitlement, status.Subscription.IsActive, subscription.EntitlementTrialExpired)
	}
	stored, err = subs.GetByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	reloaded, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.IsActive || reloaded.IsPremium {
		t.Errorf("after heal: subscription active %v, user premium %v, want both false", stored.IsActive, reloaded.IsPremium)
	}
}
