package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

const poolColumns = `id, total_tokens, target_tokens, distribution_round, next_distribution_date,
	charity_percentage, top_contributors_percentage, max_top_contributors, last_distributed_at, updated_at`

const distributionColumns = `id, pool_round, user_id, is_charity, charity_name, token_amount, rank,
	status, attempts, last_error, created_at, updated_at`

// poolID is the key of the singleton pool row
const poolID = 1

// PoolRepository implements pool.Repository
type PoolRepository struct {
	*Store
}

// NewPoolRepository creates a new pool repository
func NewPoolRepository(store *Store) pool.Repository {
	return &PoolRepository{Store: store}
}

// Ensure inserts the pool row with the given defaults unless it exists
func (r *PoolRepository) Ensure(ctx context.Context, p *pool.Pool) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO token_pool (id, total_tokens, target_tokens, distribution_round, next_distribution_date,
			charity_percentage, top_contributors_percentage, max_top_contributors, updated_at)
		VALUES ($1, 0, $2, 1, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		poolID, p.TargetTokens, unixPtr(p.NextDistributionDate), p.CharityPercentage,
		p.TopContributorsPercentage, p.MaxTopContributors, time.Now().Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to initialize pool", err)
	}
	return nil
}

// Get returns the pool row
func (r *PoolRepository) Get(ctx context.Context) (*pool.Pool, error) {
	return scanPool(r.conn(ctx).QueryRowContext(ctx, `SELECT `+poolColumns+` FROM token_pool WHERE id = $1`, poolID))
}

// GetForUpdate returns the pool row locked for the open transaction
func (r *PoolRepository) GetForUpdate(ctx context.Context) (*pool.Pool, error) {
	return scanPool(r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+poolColumns+` FROM token_pool WHERE id = $1`+r.forUpdate(), poolID))
}

// AddContribution adds c.TokenAmount to the pool only while the pool is still
// at c.PoolRound, then records the contribution
func (r *PoolRepository) AddContribution(ctx context.Context, c *pool.Contribution) (*pool.Pool, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var p *pool.Pool
	err := r.WithinTx(ctx, func(ctx context.Context) error {
		res, err := r.conn(ctx).ExecContext(ctx, `
			UPDATE token_pool
			SET total_tokens = total_tokens + $1, updated_at = $2
			WHERE id = $3 AND distribution_round = $4`,
			c.TokenAmount, unix(c.CreatedAt), poolID, c.PoolRound,
		)
		if err != nil {
			return errors.DatabaseError("Failed to update pool", err)
		}
		n, err := affected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			current, err := r.Get(ctx)
			if err != nil {
				return err
			}
			return errors.PoolRoundMismatch(c.PoolRound, current.DistributionRound)
		}

		id, err := r.insert(ctx, `
			INSERT INTO pool_contributions (user_id, nft_id, token_amount, pool_round, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			c.UserID, c.NftID, c.TokenAmount, c.PoolRound, unix(c.CreatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.Conflict("NFT has already been contributed")
			}
			return errors.DatabaseError("Failed to record contribution", err)
		}
		c.ID = id

		p, err = r.Get(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ContributorTotals aggregates a round's contributions per user
func (r *PoolRepository) ContributorTotals(ctx context.Context, round int64) ([]pool.ContributorTotal, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT user_id, SUM(token_amount), MIN(created_at), MIN(id)
		FROM pool_contributions
		WHERE pool_round = $1
		GROUP BY user_id`, round)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate contributions", err)
	}
	defer rows.Close()

	var totals []pool.ContributorTotal
	for rows.Next() {
		var t pool.ContributorTotal
		var first int64
		if err := rows.Scan(&t.UserID, &t.Total, &first, &t.FirstContributionID); err != nil {
			return nil, errors.DatabaseError("Failed to scan contribution total", err)
		}
		t.FirstContributedAt = fromUnix(first)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to aggregate contributions", err)
	}
	return totals, nil
}

// CloseRound zeroes the total and moves round -> round+1
func (r *PoolRepository) CloseRound(ctx context.Context, round int64, next *time.Time, now time.Time) error {
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE token_pool
		SET total_tokens = 0, distribution_round = distribution_round + 1,
			next_distribution_date = $1, last_distributed_at = $2, updated_at = $3
		WHERE id = $4 AND distribution_round = $5`,
		unixPtr(next), unix(now), unix(now), poolID, round,
	)
	if err != nil {
		return errors.DatabaseError("Failed to close pool round", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.PoolRoundMismatch(round, round+1)
	}
	return nil
}

// Reschedule sets the next distribution date without closing the round
func (r *PoolRepository) Reschedule(ctx context.Context, round int64, next *time.Time) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE token_pool SET next_distribution_date = $1, updated_at = $2
		WHERE id = $3 AND distribution_round = $4`,
		unixPtr(next), time.Now().Unix(), poolID, round,
	)
	if err != nil {
		return errors.DatabaseError("Failed to reschedule distribution", err)
	}
	return nil
}

// UpdateSettings updates the tunable parameters
func (r *PoolRepository) UpdateSettings(ctx context.Context, s pool.Settings) error {
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE token_pool
		SET target_tokens = $1, charity_percentage = $2, top_contributors_percentage = $3,
			max_top_contributors = $4, updated_at = $5
		WHERE id = $6`,
		s.TargetTokens, s.CharityPercentage, s.TopContributorsPercentage, s.MaxTopContributors,
		time.Now().Unix(), poolID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update pool settings", err)
	}
	return requireRow(res, "Pool")
}

// CreateDistribution inserts a payout row
func (r *PoolRepository) CreateDistribution(ctx context.Context, d *pool.Distribution) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = pool.DistributionPending
	}

	id, err := r.insert(ctx, `
		INSERT INTO pool_distributions (pool_round, user_id, is_charity, charity_name, token_amount, rank,
			status, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.PoolRound, d.UserID, d.IsCharity, d.CharityName, d.TokenAmount, d.Rank,
		string(d.Status), d.Attempts, d.LastError, unix(now), unix(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create distribution", err)
	}

	d.ID = id
	return nil
}

// GetDistribution returns one payout row
func (r *PoolRepository) GetDistribution(ctx context.Context, id int64) (*pool.Distribution, error) {
	return scanDistribution(r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+distributionColumns+` FROM pool_distributions WHERE id = $1`, id))
}

// TransitionDistribution moves a row to `to` when its current status allows it
func (r *PoolRepository) TransitionDistribution(ctx context.Context, id int64, to pool.DistributionStatus, lastErr *string) (bool, error) {
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE pool_distributions
		SET status = $1, attempts = attempts + 1, last_error = $2, updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)`,
		string(to), lastErr, time.Now().Unix(), id,
		string(pool.DistributionPending), string(pool.DistributionFailed),
	)
	if err != nil {
		return false, errors.DatabaseError("Failed to update distribution", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDistributions lists a round's payout rows, ranked users first then charities
func (r *PoolRepository) ListDistributions(ctx context.Context, round int64) ([]*pool.Distribution, error) {
	return r.queryDistributions(ctx, `
		SELECT `+distributionColumns+` FROM pool_distributions
		WHERE pool_round = $1
		ORDER BY is_charity, rank, id`, round)
}

// ListRetryable returns failed rows under maxAttempts and pending rows last
// touched before staleBefore
func (r *PoolRepository) ListRetryable(ctx context.Context, staleBefore time.Time, maxAttempts int) ([]*pool.Distribution, error) {
	return r.queryDistributions(ctx, `
		SELECT `+distributionColumns+` FROM pool_distributions
		WHERE (status = $1 AND attempts < $2) OR (status = $3 AND updated_at < $4)
		ORDER BY id`,
		string(pool.DistributionFailed), maxAttempts, string(pool.DistributionPending), unix(staleBefore))
}

func (r *PoolRepository) queryDistributions(ctx context.Context, query string, args ...interface{}) ([]*pool.Distribution, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list distributions", err)
	}
	defer rows.Close()

	var out []*pool.Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list distributions", err)
	}
	return out, nil
}

func scanPool(row rowScanner) (*pool.Pool, error) {
	var p pool.Pool
	var next, last sql.NullInt64
	var updatedAt int64

	err := row.Scan(&p.ID, &p.TotalTokens, &p.TargetTokens, &p.DistributionRound, &next,
		&p.CharityPercentage, &p.TopContributorsPercentage, &p.MaxTopContributors, &last, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Pool")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get pool", err)
	}

	p.NextDistributionDate = fromNullUnix(next)
	p.LastDistributedAt = fromNullUnix(last)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

func scanDistribution(row rowScanner) (*pool.Distribution, error) {
	var d pool.Distribution
	var userID, rank sql.NullInt64
	var charityName, lastErr sql.NullString
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(&d.ID, &d.PoolRound, &userID, &d.IsCharity, &charityName, &d.TokenAmount, &rank,
		&status, &d.Attempts, &lastErr, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Distribution")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get distribution", err)
	}

	d.UserID = nullInt64(userID)
	if rank.Valid {
		v := int(rank.Int64)
		d.Rank = &v
	}
	d.CharityName = nullString(charityName)
	d.LastError = nullString(lastErr)
	d.Status = pool.DistributionStatus(status)
	d.CreatedAt = fromUnix(createdAt)
	d.UpdatedAt = fromUnix(updatedAt)
	return &d, nil
}
