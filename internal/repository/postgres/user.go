package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

const userColumns = `id, email, username, password_hash, role, emotion_tokens, is_premium,
	premium_plan_type, premium_expiry_date, trial_start_date, trial_end_date, cancelled_at,
	referred_by, family_plan_owner_id, ledger_frozen, deleted_at, created_at, updated_at`

// UserRepository implements user.Repository
type UserRepository struct {
	*Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store *Store) user.Repository {
	return &UserRepository{Store: store}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = user.RoleUser
	}

	id, err := r.insert(ctx, `
		INSERT INTO users (email, username, password_hash, role, emotion_tokens, is_premium,
			referred_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, FALSE, $5, $6, $7)`,
		u.Email, u.Username, u.PasswordHash, u.Role, u.ReferredBy, unix(now), unix(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("User with this email already exists")
		}
		return errors.DatabaseError("Failed to create user", err)
	}

	u.ID = id
	u.EmotionTokens = 0
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	row := r.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UpdateProfile updates username and role
func (r *UserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE users SET username = $1, role = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL`,
		u.Username, u.Role, unix(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}
	return requireRow(res, "User")
}

// UpdatePremiumState mirrors subscription state onto the user row
func (r *UserRepository) UpdatePremiumState(ctx context.Context, userID int64, s user.PremiumState) error {
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE users
		SET is_premium = $1, premium_plan_type = $2, premium_expiry_date = $3,
			trial_start_date = $4, trial_end_date = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $8`,
		s.IsPremium, s.PremiumPlanType, unixPtr(s.PremiumExpiryDate),
		unixPtr(s.TrialStartDate), unixPtr(s.TrialEndDate), unixPtr(s.CancelledAt),
		time.Now().Unix(), userID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update premium state", err)
	}
	return requireRow(res, "User")
}

// Lock locks the given user rows, in id order, for the open transaction
func (r *UserRepository) Lock(ctx context.Context, ids ...int64) error {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, id := range sorted {
		var locked int64
		err := r.conn(ctx).QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1`+r.forUpdate(), id).Scan(&locked)
		if err == sql.ErrNoRows {
			return errors.NotFound("User")
		}
		if err != nil {
			return errors.DatabaseError("Failed to lock user", err)
		}
	}
	return nil
}

// SetLedgerFrozen freezes or unfreezes token mutations for a user
func (r *UserRepository) SetLedgerFrozen(ctx context.Context, userID int64, frozen bool) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE users SET ledger_frozen = $1, updated_at = $2 WHERE id = $3`,
		frozen, time.Now().Unix(), userID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update ledger freeze", err)
	}
	return requireRow(res, "User")
}

// Anonymize scrubs personal data and marks the user deleted. Token balance,
// ledger rows and pool history stay in place.
func (r *UserRepository) Anonymize(ctx context.Context, id int64) error {
	now := time.Now().Unix()
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE users
		SET email = $1, username = $2, password_hash = '', deleted_at = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL`,
		fmt.Sprintf("deleted-%d@users.invalid", id), fmt.Sprintf("deleted-user-%d", id), now, now, id,
	)
	if err != nil {
		return errors.DatabaseError("Failed to delete user", err)
	}
	return requireRow(res, "User")
}

// List retrieves users with pagination, deleted users excluded
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	var total int64
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE deleted_at IS NULL
		ORDER BY id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}

	return users, total, nil
}

// ListIDs returns the ids of every user, deleted ones included
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list user ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan user id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetFamilyRelationship returns the relationship between owner and member
func (r *UserRepository) GetFamilyRelationship(ctx context.Context, ownerID, memberID int64) (*user.FamilyRelationship, error) {
	var rel user.FamilyRelationship
	var createdAt int64

	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT owner_id, member_id, can_transfer_tokens, created_at
		FROM family_relationships WHERE owner_id = $1 AND member_id = $2`,
		ownerID, memberID,
	).Scan(&rel.OwnerID, &rel.MemberID, &rel.CanTransferTokens, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Family relationship")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get family relationship", err)
	}

	rel.CreatedAt = fromUnix(createdAt)
	return &rel, nil
}

// UpsertFamilyRelationship creates or updates a family relationship and points
// the member at the owner's plan
func (r *UserRepository) UpsertFamilyRelationship(ctx context.Context, rel *user.FamilyRelationship) error {
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}

	return r.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.conn(ctx).ExecContext(ctx, `
			INSERT INTO family_relationships (owner_id, member_id, can_transfer_tokens, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (owner_id, member_id) DO UPDATE SET can_transfer_tokens = excluded.can_transfer_tokens`,
			rel.OwnerID, rel.MemberID, rel.CanTransferTokens, unix(rel.CreatedAt),
		); err != nil {
			return errors.DatabaseError("Failed to save family relationship", err)
		}

		res, err := r.conn(ctx).ExecContext(ctx,
			`UPDATE users SET family_plan_owner_id = $1, updated_at = $2 WHERE id = $3`,
			rel.OwnerID, time.Now().Unix(), rel.MemberID,
		)
		if err != nil {
			return errors.DatabaseError("Failed to link family member", err)
		}
		return requireRow(res, "User")
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var planType sql.NullString
	var expiry, trialStart, trialEnd, cancelled, deleted sql.NullInt64
	var referredBy, familyOwner sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.EmotionTokens, &u.IsPremium,
		&planType, &expiry, &trialStart, &trialEnd, &cancelled,
		&referredBy, &familyOwner, &u.LedgerFrozen, &deleted, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}

	u.PremiumPlanType = nullString(planType)
	u.PremiumExpiryDate = fromNullUnix(expiry)
	u.TrialStartDate = fromNullUnix(trialStart)
	u.TrialEndDate = fromNullUnix(trialEnd)
	u.CancelledAt = fromNullUnix(cancelled)
	u.ReferredBy = nullInt64(referredBy)
	u.FamilyPlanOwnerID = nullInt64(familyOwner)
	u.DeletedAt = fromNullUnix(deleted)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)

	return &u, nil
}

func requireRow(res sql.Result, resource string) error {
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}
