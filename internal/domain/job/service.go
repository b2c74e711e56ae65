package job

import "context"

// Service defines the job scheduler interface
type Service interface {
	// RunNow executes a job immediately and records the execution
	RunNow(ctx context.Context, jobType JobType) (*Execution, error)

	// ListExecutions lists recorded executions, newest first
	ListExecutions(ctx context.Context, filter ExecutionFilter, limit, offset int) ([]*Execution, int64, error)

	// Scheduler Management
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
}
