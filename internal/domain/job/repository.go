package job

import "context"

// Repository defines the job execution repository interface
type Repository interface {
	CreateExecution(ctx context.Context, execution *Execution) error
	UpdateExecution(ctx context.Context, execution *Execution) error
	ListExecutions(ctx context.Context, filter ExecutionFilter, limit, offset int) ([]*Execution, int64, error)
}
