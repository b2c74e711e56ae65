package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

// LedgerRepository implements ledger.Repository over users.emotion_tokens and
// the append-only reward_activities table
type LedgerRepository struct {
	*Store
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(store *Store) ledger.Repository {
	return &LedgerRepository{Store: store}
}

// Append applies entry.TokensEarned to the balance and appends the row in one
// transaction
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.RewardActivity) error {
	if entry.TokensEarned == 0 {
		return errors.BadRequest("Ledger entry amount must not be zero")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	return r.WithinTx(ctx, func(ctx context.Context) error {
		var balance int64
		var frozen bool
		err := r.conn(ctx).QueryRowContext(ctx,
			`SELECT emotion_tokens, ledger_frozen FROM users WHERE id = $1`+r.forUpdate(),
			entry.UserID,
		).Scan(&balance, &frozen)
		if err == sql.ErrNoRows {
			return errors.NotFound("User")
		}
		if err != nil {
			return errors.DatabaseError("Failed to read balance", err)
		}

		if frozen {
			return errors.LedgerFrozen(entry.UserID)
		}

		next := balance + entry.TokensEarned
		if next < 0 {
			return errors.InsufficientTokens(balance, -entry.TokensEarned)
		}

		if _, err := r.conn(ctx).ExecContext(ctx,
			`UPDATE users SET emotion_tokens = $1, updated_at = $2 WHERE id = $3`,
			next, unix(entry.CreatedAt), entry.UserID,
		); err != nil {
			return errors.DatabaseError("Failed to update balance", err)
		}

		id, err := r.insert(ctx, `
			INSERT INTO reward_activities (user_id, activity_type, tokens_earned, description, balance_after, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			entry.UserID, string(entry.ActivityType), entry.TokensEarned, entry.Description, next, unix(entry.CreatedAt),
		)
		if err != nil {
			return errors.DatabaseError("Failed to append ledger entry", err)
		}

		entry.ID = id
		entry.BalanceAfter = next
		return nil
	})
}

// SetBalance overwrites the stored balance
func (r *LedgerRepository) SetBalance(ctx context.Context, userID int64, balance int64) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE users SET emotion_tokens = $1, updated_at = $2 WHERE id = $3`,
		balance, time.Now().Unix(), userID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to restore balance", err)
	}
	return requireRow(res, "User")
}

// GetBalance returns the stored balance and frozen flag
func (r *LedgerRepository) GetBalance(ctx context.Context, userID int64) (*ledger.Balance, error) {
	b := ledger.Balance{UserID: userID}
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT emotion_tokens, ledger_frozen FROM users WHERE id = $1`, userID,
	).Scan(&b.Balance, &b.Frozen)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to read balance", err)
	}
	return &b, nil
}

// List returns a user's ledger rows, newest first
func (r *LedgerRepository) List(ctx context.Context, userID int64, limit, offset int) ([]*ledger.RewardActivity, int64, error) {
	var total int64
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reward_activities WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count ledger entries", err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT id, user_id, activity_type, tokens_earned, description, balance_after, created_at
		FROM reward_activities
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list ledger entries", err)
	}
	defer rows.Close()

	var entries []*ledger.RewardActivity
	for rows.Next() {
		var e ledger.RewardActivity
		var activityType string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &activityType, &e.TokensEarned, &e.Description,
			&e.BalanceAfter, &createdAt); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan ledger entry", err)
		}
		e.ActivityType = ledger.ActivityType(activityType)
		e.CreatedAt = fromUnix(createdAt)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list ledger entries", err)
	}

	return entries, total, nil
}

// Sum returns SUM(tokens_earned) for a user
func (r *LedgerRepository) Sum(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens_earned), 0) FROM reward_activities WHERE user_id = $1`, userID,
	).Scan(&sum); err != nil {
		return 0, errors.DatabaseError("Failed to sum ledger", err)
	}
	return sum, nil
}

// CountSince counts a user's rows of one type created at or after since
func (r *LedgerRepository) CountSince(ctx context.Context, userID int64, activityType ledger.ActivityType, since time.Time) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reward_activities
		WHERE user_id = $1 AND activity_type = $2 AND created_at >= $3`,
		userID, string(activityType), unix(since),
	).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count ledger entries", err)
	}
	return n, nil
}

// FindDivergent returns every user whose balance differs from the ledger sum
func (r *LedgerRepository) FindDivergent(ctx context.Context) ([]ledger.Divergence, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT u.id, u.emotion_tokens, COALESCE(SUM(ra.tokens_earned), 0) AS ledger_sum
		FROM users u
		LEFT JOIN reward_activities ra ON ra.user_id = u.id
		GROUP BY u.id, u.emotion_tokens
		HAVING u.emotion_tokens <> COALESCE(SUM(ra.tokens_earned), 0)
		ORDER BY u.id`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to reconcile ledger", err)
	}
	defer rows.Close()

	var out []ledger.Divergence
	for rows.Next() {
		var d ledger.Divergence
		if err := rows.Scan(&d.UserID, &d.Balance, &d.LedgerSum); err != nil {
			return nil, errors.DatabaseError("Failed to scan divergence", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountUsers returns the number of users checked by a full reconciliation
func (r *LedgerRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count users", err)
	}
	return n, nil
}
