package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/moodlync/tokencore/internal/domain/job"
)

// JobRepository implements job.Repository for PostgreSQL/SQLite
type JobRepository struct {
	*Store
}

// NewJobRepository creates a new job repository
func NewJobRepository(store *Store) job.Repository {
	return &JobRepository{Store: store}
}

// CreateExecution creates a new job execution
func (r *JobRepository) CreateExecution(ctx context.Context, e *job.Execution) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO job_executions (id, job_type, status, trigger_source, started_at, completed_at, duration_ms, summary, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		e.ID,
		string(e.JobType),
		string(e.Status),
		e.Trigger,
		unix(e.StartedAt),
		unixPtr(e.CompletedAt),
		e.DurationMs,
		e.Summary,
		e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create job execution: %w", err)
	}

	return nil
}

// UpdateExecution updates a job execution
func (r *JobRepository) UpdateExecution(ctx context.Context, e *job.Execution) error {
	query := `
		UPDATE job_executions
		SET status = $1, completed_at = $2, duration_ms = $3, summary = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		string(e.Status),
		unixPtr(e.CompletedAt),
		e.DurationMs,
		e.Summary,
		e.ErrorMessage,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job execution: %w", err)
	}

	return nil
}

// ListExecutions lists job executions with filtering, newest first
func (r *JobRepository) ListExecutions(ctx context.Context, filter job.ExecutionFilter, limit, offset int) ([]*job.Execution, int64, error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if filter.JobType != "" {
		args = append(args, string(filter.JobType))
		where += " AND job_type = " + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += " AND status = " + placeholder(len(args))
	}

	var total int64
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM job_executions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count job executions: %w", err)
	}

	query := `
		SELECT id, job_type, status, trigger_source, started_at, completed_at, duration_ms, summary, error_message
		FROM job_executions` + where +
		` ORDER BY started_at DESC, id LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list job executions: %w", err)
	}
	defer rows.Close()

	var executions []*job.Execution
	for rows.Next() {
		var e job.Execution
		var jobType, status string
		var startedAt int64
		var completedAt sql.NullInt64
		var summary, errMsg sql.NullString

		if err := rows.Scan(&e.ID, &jobType, &status, &e.Trigger, &startedAt, &completedAt,
			&e.DurationMs, &summary, &errMsg); err != nil {
			return nil, 0, fmt.Errorf("failed to scan job execution: %w", err)
		}

		e.JobType = job.JobType(jobType)
		e.Status = job.ExecutionStatus(status)
		e.StartedAt = fromUnix(startedAt)
		e.CompletedAt = fromNullUnix(completedAt)
		e.Summary = summary.String
		e.ErrorMessage = errMsg.String
		executions = append(executions, &e)
	}

	return executions, total, rows.Err()
}
