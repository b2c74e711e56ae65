package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/internal/testutil"
)

func createUser(t *testing.T, repo user.Repository, name string) *user.User {
	t.Helper()
	u := &user.User{
		Email:    fmt.Sprintf("%s@example.com", name),
		Username: name,
		Role:     user.RoleUser,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return u
}

func TestUserRepository_Create(t *testing.T) {
	store := testutil.NewTestStore(t)
	repo := postgres.NewUserRepository(store)

	tests := []struct {
		name    string
		user    *user.User
		wantErr string
	}{
		{
			name:    "create user successfully",
			user:    &user.User{Email: "test@example.com", Username: "test"},
			wantErr: "",
		},
		{
			name:    "create another user",
			user:    &user.User{Email: "another@example.com", Username: "another", Role: user.RoleCharity},
			wantErr: "",
		},
		{
			name:    "duplicate email",
			user:    &user.User{Email: "test@example.com", Username: "dup"},
			wantErr: errors.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			err := repo.Create(ctx, tt.user)

			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if tt.user.ID == 0 {
				t.Error("Create() did not set user ID")
			}
			if tt.user.Role == "" {
				t.Error("Create() did not default the role")
			}
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	store := testutil.NewTestStore(t)
	repo := postgres.NewUserRepository(store)
	ctx := context.Background()

	created := createUser(t, repo, "getbyid")

	tests := []struct {
		name    string
		id      int64
		wantErr bool
	}{
		{"get existing user", created.ID, false},
		{"get non-existent user", 99999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := repo.GetByID(ctx, tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetByID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.HasCode(err, errors.ErrCodeNotFound) {
					t.Errorf("GetByID() error = %v, want %s", err, errors.ErrCodeNotFound)
				}
				return
			}
			if u.Email != created.Email || u.EmotionTokens != 0 || u.LedgerFrozen {
				t.Errorf("GetByID() = %+v", u)
			}
		})
	}
}

func TestUserRepository_PremiumStateAndFreeze(t *testing.T) {
	store := testutil.NewTestStore(t)
	repo := postgres.NewUserRepository(store)
	ctx := context.Background()

	u := createUser(t, repo, "premium")
	plan := "premium"
	expiry := testutil.FixedTime().AddDate(0, 1, 0)

	if err := repo.UpdatePremiumState(ctx, u.ID, user.PremiumState{
		IsPremium:         true,
		PremiumPlanType:   &plan,
		PremiumExpiryDate: &expiry,
	}); err != nil {
		t.Fatalf("UpdatePremiumState() error = %v", err)
	}
	if err := repo.SetLedgerFrozen(ctx, u.ID, true); err != nil {
		t.Fatalf("SetLedgerFrozen() error = %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.IsPremium || got.PremiumPlanType == nil || *got.PremiumPlanType != plan {
		t.Errorf("premium state = %v %v", got.IsPremium, got.PremiumPlanType)
	}
	if got.PremiumExpiryDate == nil || !got.PremiumExpiryDate.Equal(expiry) {
		t.Errorf("PremiumExpiryDate = %v, want %v", got.PremiumExpiryDate, expiry)
	}
	if !got.LedgerFrozen {
		t.Error("LedgerFrozen = false, want true")
	}

	if err := repo.SetLedgerFrozen(ctx, 99999, true); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("SetLedgerFrozen() unknown user error = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestUserRepository_Anonymize(t *testing.T) {
	store := testutil.NewTestStore(t)
	repo := postgres.NewUserRepository(store)
	ctx := context.Background()

	u := createUser(t, repo, "leaving")
	other := createUser(t, repo, "staying")

	if err := repo.Anonymize(ctx, u.ID); err != nil {
		t.Fatalf("Anonymize() error = %v", err)
	}
	if err := repo.Anonymize(ctx, u.ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("second Anonymize() error = %v, want %s", err, errors.ErrCodeNotFound)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.IsDeleted() || got.Email == u.Email || got.PasswordHash != "" {
		t.Errorf("anonymized user = %+v", got)
	}

	// the original email is free again
	if _, err := repo.GetByEmail(ctx, u.Email); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("GetByEmail() error = %v, want %s", err, errors.ErrCodeNotFound)
	}

	users, total, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != other.ID {
		t.Errorf("List() = %d users (total %d), want only the active user", len(users), total)
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListIDs() = %v, want both users", ids)
	}
}

func TestUserRepository_FamilyRelationship(t *testing.T) {
	store := testutil.NewTestStore(t)
	repo := postgres.NewUserRepository(store)
	ctx := context.Background()

	owner := createUser(t, repo, "owner")
	member := createUser(t, repo, "member")

	if _, err := repo.GetFamilyRelationship(ctx, owner.ID, member.ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("GetFamilyRelationship() error = %v, want %s", err, errors.ErrCodeNotFound)
	}

	rel := &user.FamilyRelationship{OwnerID: owner.ID, MemberID: member.ID}
	if err := repo.UpsertFamilyRelationship(ctx, rel); err != nil {
		t.Fatalf("UpsertFamilyRelationship() error = %v", err)
	}
	rel.CanTransferTokens = true
	if err := repo.UpsertFamilyRelationship(ctx, rel); err != nil {
		t.Fatalf("UpsertFamilyRelationship() update error = %v", err)
	}

	got, err := repo.GetFamilyRelationship(ctx, owner.ID, member.ID)
	if err != nil {
		t.Fatalf("GetFamilyRelationship() error = %v", err)
	}
	if !got.CanTransferTokens {
		t.Error("CanTransferTokens = false after upsert")
	}

	m, err := repo.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if m.FamilyPlanOwnerID == nil || *m.FamilyPlanOwnerID != owner.ID {
		t.Errorf("FamilyPlanOwnerID = %v, want %d", m.FamilyPlanOwnerID, owner.ID)
	}
}

func TestUserRepository_Lock(t *testing.T) {
	store := testutil.NewTestStore(t)
	repo := postgres.NewUserRepository(store)
	ctx := context.Background()

	a := createUser(t, repo, "a")
	b := createUser(t, repo, "b")

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return repo.Lock(ctx, b.ID, a.ID)
	})
	if err != nil {
		t.Errorf("Lock() error = %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		return repo.Lock(ctx, a.ID, 99999)
	})
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Lock() unknown user error = %v, want %s", err, errors.ErrCodeNotFound)
	}
}
