package services

import (
	"context"
	"testing"
	"time"

	"github.com/moodlync/tokencore/internal/domain/transfer"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/internal/testutil"
)

func TestTransferService_Gift(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	from := e.newUser(user.RoleUser, 100)
	to := e.newUser(user.RoleUser, 0)

	tr, err := e.transfers.Transfer(ctx, from, to, 40, transfer.TypeGift)
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if tr.Status != transfer.StatusCompleted || tr.Reference == "" {
		t.Errorf("Transfer() = %+v, want completed with a reference", tr)
	}
	if got := e.balance(from); got != 60 {
		t.Errorf("sender balance = %d, want 60", got)
	}
	if got := e.balance(to); got != 40 {
		t.Errorf("recipient balance = %d, want 40", got)
	}

	stored, err := e.transfers.Get(ctx, tr.ID, to)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != transfer.StatusCompleted {
		t.Errorf("stored status = %s, want completed", stored.Status)
	}

	outsider := e.newUser(user.RoleUser, 0)
	if _, err := e.transfers.Get(ctx, tr.ID, outsider); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Get() by outsider error = %v, want %s", err, errors.ErrCodeNotFound)
	}
	e.assertConsistent()
}

func TestTransferService_InsufficientTokensWritesFailedRow(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	from := e.newUser(user.RoleUser, 10)
	to := e.newUser(user.RoleUser, 0)

	_, err := e.transfers.Transfer(ctx, from, to, 50, transfer.TypeGift)
	if !errors.HasCode(err, errors.ErrCodeInsufficientTokens) {
		t.Fatalf("Transfer() error = %v, want %s", err, errors.ErrCodeInsufficientTokens)
	}

	rows, total, err := e.transfers.List(ctx, from, transfer.Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || rows[0].Status != transfer.StatusFailed || rows[0].FailureReason == nil {
		t.Errorf("List() = %+v, want one failed row with a reason", rows)
	}
	if got := e.balance(from); got != 10 {
		t.Errorf("sender balance = %d, want 10", got)
	}
	if got := e.balance(to); got != 0 {
		t.Errorf("recipient balance = %d, want 0", got)
	}
}

func TestTransferService_Validation(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	from := e.newUser(user.RoleUser, 100)
	to := e.newUser(user.RoleUser, 0)

	tests := []struct {
		name   string
		to     int64
		amount int64
		typ    transfer.Type
		want   string
	}{
		{"to self", from, 10, transfer.TypeGift, errors.ErrCodeBadRequest},
		{"zero amount", to, 0, transfer.TypeGift, errors.ErrCodeBadRequest},
		{"negative amount", to, -5, transfer.TypeGift, errors.ErrCodeBadRequest},
		{"unknown type", to, 10, transfer.Type("loan"), errors.ErrCodeBadRequest},
		{"unknown recipient", 9999, 10, transfer.TypeGift, errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.transfers.Transfer(ctx, from, tt.to, tt.amount, tt.typ)
			if !errors.HasCode(err, tt.want) {
				t.Errorf("Transfer() error = %v, want %s", err, tt.want)
			}
		})
	}

	_, total, _ := e.transfers.List(ctx, from, transfer.Filter{}, 10, 0)
	if total != 0 {
		t.Errorf("rejected transfers wrote %d rows, want 0", total)
	}
}

func TestTransferService_FamilyPolicy(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	owner := e.newUser(user.RoleUser, 100)
	member := e.newUser(user.RoleUser, 100)

	if _, err := e.transfers.Transfer(ctx, owner, member, 10, transfer.TypeFamily); !errors.HasCode(err, errors.ErrCodeForbidden) {
		t.Fatalf("Transfer() without relationship error = %v, want %s", err, errors.ErrCodeForbidden)
	}
	if _, total, _ := e.transfers.List(ctx, owner, transfer.Filter{}, 10, 0); total != 0 {
		t.Errorf("forbidden transfer wrote %d rows, want 0", total)
	}

	rel := &user.FamilyRelationship{OwnerID: owner, MemberID: member, CanTransferTokens: false}
	if err := e.users.UpsertFamilyRelationship(ctx, rel); err != nil {
		t.Fatalf("UpsertFamilyRelationship() error = %v", err)
	}
	if _, err := e.transfers.Transfer(ctx, owner, member, 10, transfer.TypeFamily); !errors.HasCode(err, errors.ErrCodeForbidden) {
		t.Errorf("Transfer() with transfers disabled error = %v, want %s", err, errors.ErrCodeForbidden)
	}

	rel.CanTransferTokens = true
	if err := e.users.UpsertFamilyRelationship(ctx, rel); err != nil {
		t.Fatalf("UpsertFamilyRelationship() error = %v", err)
	}
	if _, err := e.transfers.Transfer(ctx, owner, member, 10, transfer.TypeFamily); err != nil {
		t.Errorf("Transfer() owner to member error = %v", err)
	}
	if _, err := e.transfers.Transfer(ctx, member, owner, 5, transfer.TypeFamily); err != nil {
		t.Errorf("Transfer() member to owner error = %v", err)
	}
	if got := e.balance(member); got != 105 {
		t.Errorf("member balance = %d, want 105", got)
	}
}

func TestTransferService_CharityPolicy(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	donor := e.newUser(user.RoleUser, 100)
	person := e.newUser(user.RoleUser, 0)
	charity := e.newUser(user.RoleCharity, 0)

	if _, err := e.transfers.Transfer(ctx, donor, person, 10, transfer.TypeCharity); !errors.HasCode(err, errors.ErrCodeForbidden) {
		t.Errorf("Transfer() to non-charity error = %v, want %s", err, errors.ErrCodeForbidden)
	}
	if _, err := e.transfers.Transfer(ctx, donor, charity, 10, transfer.TypeCharity); err != nil {
		t.Errorf("Transfer() to charity error = %v", err)
	}
}

func TestTransferService_FrozenSender(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	from := e.newUser(user.RoleUser, 100)
	to := e.newUser(user.RoleUser, 0)

	if err := e.users.SetLedgerFrozen(ctx, from, true); err != nil {
		t.Fatalf("SetLedgerFrozen() error = %v", err)
	}
	if _, err := e.transfers.Transfer(ctx, from, to, 10, transfer.TypeGift); !errors.HasCode(err, errors.ErrCodeLedgerFrozen) {
		t.Errorf("Transfer() error = %v, want %s", err, errors.ErrCodeLedgerFrozen)
	}
}

func TestTransferService_FrozenRecipientFailsRow(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	from := e.newUser(user.RoleUser, 100)
	to := e.newUser(user.RoleUser, 0)

	if err := e.users.SetLedgerFrozen(ctx, to, true); err != nil {
		t.Fatalf("SetLedgerFrozen() error = %v", err)
	}
	if _, err := e.transfers.Transfer(ctx, from, to, 10, transfer.TypeGift); !errors.HasCode(err, errors.ErrCodeLedgerFrozen) {
		t.Fatalf("Transfer() error = %v, want %s", err, errors.ErrCodeLedgerFrozen)
	}

	rows, _, err := e.transfers.List(ctx, from, transfer.Filter{Status: transfer.StatusFailed}, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("failed rows = %d, want 1", len(rows))
	}
	if got := e.balance(from); got != 100 {
		t.Errorf("sender balance = %d, want 100 after rollback", got)
	}
	e.assertConsistent()
}

func TestTransferService_CancelAndSweep(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	from := e.newUser(user.RoleUser, 100)
	to := e.newUser(user.RoleUser, 0)
	repo := postgres.NewTransferRepository(e.store)

	pending := func() *transfer.Transfer {
		tr := &transfer.Transfer{FromUserID: from, ToUserID: to, Amount: 10, Type: transfer.TypeGift, Status: transfer.StatusPending}
		if err := repo.Create(ctx, tr); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		return tr
	}

	first := pending()
	if _, err := e.transfers.Cancel(ctx, first.ID, to); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Cancel() by recipient error = %v, want %s", err, errors.ErrCodeNotFound)
	}
	canceled, err := e.transfers.Cancel(ctx, first.ID, from)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if canceled.Status != transfer.StatusCanceled {
		t.Errorf("status = %s, want canceled", canceled.Status)
	}
	if _, err := e.transfers.Cancel(ctx, first.ID, from); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("second Cancel() error = %v, want %s", err, errors.ErrCodeConflict)
	}

	second := pending()
	swept, err := e.transfers.SweepPending(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SweepPending() error = %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}
	got, _ := repo.GetByID(ctx, second.ID)
	if got.Status != transfer.StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}

	// Forward-only: a failed row cannot complete
	if changed, err := repo.Transition(ctx, second.ID, transfer.StatusFailed, transfer.StatusCompleted, nil); err == nil || changed {
		t.Errorf("Transition(failed -> completed) = %v, %v, want rejection", changed, err)
	}
}

func TestFamilyPolicy_Mock(t *testing.T) {
	users := testutil.NewMockUserRepository()
	ctx := context.Background()
	for _, email := range []string{"o@example.com", "m@example.com", "x@example.com"} {
		if err := users.Create(ctx, &user.User{Email: email}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	users.Relationships[[2]int64{1, 2}] = &user.FamilyRelationship{OwnerID: 1, MemberID: 2, CanTransferTokens: true}

	policy := FamilyPolicy(users)
	tests := []struct {
		from, to int64
		want     bool
	}{
		{1, 2, true},
		{2, 1, true},
		{1, 3, false},
		{3, 2, false},
	}
	for _, tt := range tests {
		got, err := policy.CanTransfer(ctx, tt.from, tt.to)
		if err != nil {
			t.Fatalf("CanTransfer(%d, %d) error = %v", tt.from, tt.to, err)
		}
		if got != tt.want {
			t.Errorf("CanTransfer(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransferService_BalanceBoundary(t *testing.T) {
	tests := []struct {
		name          string
		balance       int64
		amount        int64
		wantErr       string
		wantSender    int64
		wantRecipient int64
		wantStatus    transfer.Status
	}{
		{"one over balance", 100, 101, errors.ErrCodeInsufficientTokens, 100, 0, transfer.StatusFailed},
		{"exact balance", 100, 100, "", 0, 100, transfer.StatusCompleted},
		{"single token", 1, 1, "", 0, 1, transfer.StatusCompleted},
		{"single token over", 1, 2, errors.ErrCodeInsufficientTokens, 1, 0, transfer.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEconomy(t)
			ctx := context.Background()
			from := e.newUser(user.RoleUser, tt.balance)
			to := e.newUser(user.RoleUser, 0)

			_, err := e.transfers.Transfer(ctx, from, to, tt.amount, transfer.TypeGift)
			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Fatalf("Transfer() error = %v, want %s", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Transfer() error = %v", err)
			}

			if got := e.balance(from); got != tt.wantSender {
				t.Errorf("sender balance = %d, want %d", got, tt.wantSender)
			}
			if got := e.balance(to); got != tt.wantRecipient {
				t.Errorf("recipient balance = %d, want %d", got, tt.wantRecipient)
			}

			rows, total, err := e.transfers.List(ctx, from, transfer.Filter{}, 10, 0)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != 1 || rows[0].Status != tt.wantStatus {
				t.Errorf("List() = %+v, want one %s row", rows, tt.wantStatus)
			}
			e.assertConsistent()
		})
	}
}
