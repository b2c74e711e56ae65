package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/moodlync/tokencore/internal/domain/transfer"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

const transferColumns = `id, reference, from_user_id, to_user_id, amount, type, status, failure_reason,
	created_at, updated_at`

// TransferRepository implements transfer.Repository
type TransferRepository struct {
	*Store
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(store *Store) transfer.Repository {
	return &TransferRepository{Store: store}
}

// Create inserts a transfer row with its initial status
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Reference == "" {
		t.Reference = uuid.New().String()
	}

	id, err := r.insert(ctx, `
		INSERT INTO token_transfers (reference, from_user_id, to_user_id, amount, type, status,
			failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.Reference, t.FromUserID, t.ToUserID, t.Amount, string(t.Type), string(t.Status),
		t.FailureReason, unix(now), unix(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create transfer", err)
	}

	t.ID = id
	return nil
}

// GetByID retrieves a transfer
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*transfer.Transfer, error) {
	return scanTransfer(r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM token_transfers WHERE id = $1`, id))
}

// Transition moves a transfer from `from` to `to`. The status guard in the
// WHERE clause keeps concurrent transitions from both succeeding.
func (r *TransferRepository) Transition(ctx context.Context, id int64, from, to transfer.Status, reason *string) (bool, error) {
	if !from.CanTransition(to) {
		return false, errors.Conflict("Transfer status cannot move from " + string(from) + " to " + string(to))
	}

	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE token_transfers SET status = $1, failure_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5`,
		string(to), reason, time.Now().Unix(), id, string(from),
	)
	if err != nil {
		return false, errors.DatabaseError("Failed to update transfer", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser lists transfers sent or received by a user, newest first
func (r *TransferRepository) ListByUser(ctx context.Context, userID int64, filter transfer.Filter, limit, offset int) ([]*transfer.Transfer, int64, error) {
	where := ` WHERE (from_user_id = $1 OR to_user_id = $2)`
	args := []interface{}{userID, userID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += ` AND status = ` + placeholder(len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where += ` AND type = ` + placeholder(len(args))
	}

	var total int64
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM token_transfers`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count transfers", err)
	}

	query := `SELECT ` + transferColumns + ` FROM token_transfers` + where +
		` ORDER BY id DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	transfers, err := r.queryTransfers(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}

// ListPendingBefore lists pending transfers created before cutoff
func (r *TransferRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*transfer.Transfer, error) {
	return r.queryTransfers(ctx, `
		SELECT `+transferColumns+` FROM token_transfers
		WHERE status = $1 AND created_at < $2
		ORDER BY id`, string(transfer.StatusPending), unix(cutoff))
}

func (r *TransferRepository) queryTransfers(ctx context.Context, query string, args ...interface{}) ([]*transfer.Transfer, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list transfers", err)
	}
	defer rows.Close()

	var out []*transfer.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list transfers", err)
	}
	return out, nil
}

func scanTransfer(row rowScanner) (*transfer.Transfer, error) {
	var t transfer.Transfer
	var typ, status string
	var reason sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&t.ID, &t.Reference, &t.FromUserID, &t.ToUserID, &t.Amount, &typ, &status, &reason,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Transfer")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get transfer", err)
	}

	t.Type = transfer.Type(typ)
	t.Status = transfer.Status(status)
	t.FailureReason = nullString(reason)
	t.CreatedAt = fromUnix(createdAt)
	t.UpdatedAt = fromUnix(updatedAt)
	return &t, nil
}
