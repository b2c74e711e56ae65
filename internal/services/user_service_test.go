package services

import (
	"context"
	"testing"

	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

func TestUserService_Register(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		username string
		password string
		wantErr  string
	}{
		{"successful registration", "Alice@Example.com", "alice", "s3cret-pass", ""},
		{"username from email", "bob@example.com", "", "s3cret-pass", ""},
		{"duplicate email", "alice@example.com", "alice2", "s3cret-pass", errors.ErrCodeConflict},
		{"invalid email", "not-an-email", "x", "s3cret-pass", errors.ErrCodeBadRequest},
		{"short password", "carol@example.com", "carol", "short", errors.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := e.accounts.Register(ctx, tt.email, tt.username, tt.password, nil)
			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if u.ID == 0 || u.PasswordHash == tt.password {
				t.Errorf("Register() = %+v, want an id and a hashed password", u)
			}
			if u.Username == "" {
				t.Error("Username should default from the email")
			}

			status, err := e.subs.GetStatus(ctx, u.ID)
			if err != nil {
				t.Fatalf("GetStatus() error = %v", err)
			}
			if status.Subscription.Tier != subscription.TierFree {
				t.Errorf("Tier = %s, want free", status.Subscription.Tier)
			}
		})
	}
}

func TestUserService_ReferralReward(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()

	referrer, err := e.accounts.Register(ctx, "ref@example.com", "ref", "s3cret-pass", nil)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	referred, err := e.accounts.Register(ctx, "new@example.com", "new", "s3cret-pass", &referrer.ID)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if referred.ReferredBy == nil || *referred.ReferredBy != referrer.ID {
		t.Errorf("ReferredBy = %v, want %d", referred.ReferredBy, referrer.ID)
	}

	history, _, err := e.ledger.History(ctx, referrer.ID, 10, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].ActivityType != ledger.ActivityReferral || history[0].TokensEarned != 100 {
		t.Errorf("referrer history = %+v, want one referral reward of 100", history)
	}

	unknown := int64(9999)
	if _, err := e.accounts.Register(ctx, "orphan@example.com", "orphan", "s3cret-pass", &unknown); !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("Register() with unknown referrer error = %v, want %s", err, errors.ErrCodeBadRequest)
	}
	if _, err := e.accounts.GetByEmail(ctx, "orphan@example.com"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("rejected registration left a user behind: %v", err)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()

	if _, err := e.accounts.Register(ctx, "dave@example.com", "dave", "correct-horse", nil); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := e.accounts.Authenticate(ctx, " DAVE@example.com", "correct-horse"); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}
	if _, err := e.accounts.Authenticate(ctx, "dave@example.com", "wrong"); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Authenticate() wrong password error = %v, want %s", err, errors.ErrCodeUnauthorized)
	}
	if _, err := e.accounts.Authenticate(ctx, "nobody@example.com", "correct-horse"); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Authenticate() unknown user error = %v, want %s", err, errors.ErrCodeUnauthorized)
	}
}

func TestUserService_DeleteKeepsLedger(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()

	u, err := e.accounts.Register(ctx, "erin@example.com", "erin", "s3cret-pass", nil)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	e.fund(u.ID, 25)

	if err := e.accounts.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := e.accounts.GetByID(ctx, u.ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("GetByID() after delete error = %v, want %s", err, errors.ErrCodeNotFound)
	}
	if _, err := e.accounts.Authenticate(ctx, "erin@example.com", "s3cret-pass"); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Authenticate() after delete error = %v, want %s", err, errors.ErrCodeUnauthorized)
	}
	if err := e.accounts.Delete(ctx, u.ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("second Delete() error = %v, want %s", err, errors.ErrCodeNotFound)
	}

	_, total, err := e.ledger.History(ctx, u.ID, 10, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if total != 1 {
		t.Errorf("ledger rows after delete = %d, want 1", total)
	}
	e.assertConsistent()
}

func TestUserService_LinkFamilyMember(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()

	owner, _ := e.accounts.Register(ctx, "owner@example.com", "owner", "s3cret-pass", nil)
	member, _ := e.accounts.Register(ctx, "member@example.com", "member", "s3cret-pass", nil)

	if err := e.accounts.LinkFamilyMember(ctx, owner.ID, member.ID, true); !errors.HasCode(err, errors.ErrCodeForbidden) {
		t.Errorf("LinkFamilyMember() without plan error = %v, want %s", err, errors.ErrCodeForbidden)
	}

	if _, err := e.subs.Subscribe(ctx, owner.ID, subscription.TierFamily, 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := e.accounts.LinkFamilyMember(ctx, owner.ID, member.ID, true); err != nil {
		t.Fatalf("LinkFamilyMember() error = %v", err)
	}

	status, err := e.subs.GetStatus(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Entitlement != subscription.EntitlementFamilyActive {
		t.Errorf("member Entitlement = %s, want %s", status.Entitlement, subscription.EntitlementFamilyActive)
	}

	if err := e.accounts.LinkFamilyMember(ctx, owner.ID, owner.ID, true); !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("LinkFamilyMember() self error = %v, want %s", err, errors.ErrCodeBadRequest)
	}
}
