package job

import (
	"context"
	"time"
)

// JobType identifies a background job
type JobType string

const (
	JobTypePoolDistribution     JobType = "pool_distribution"
	JobTypeLedgerReconciliation JobType = "ledger_reconciliation"
	JobTypePendingSweep         JobType = "pending_sweep"
)

// AllTypes lists every job type in registration order
var AllTypes = []JobType{JobTypePoolDistribution, JobTypeLedgerReconciliation, JobTypePendingSweep}

// IsValid checks if the job type is valid
func (jt JobType) IsValid() bool {
	switch jt {
	case JobTypePoolDistribution, JobTypeLedgerReconciliation, JobTypePendingSweep:
		return true
	default:
		return false
	}
}

// String returns the string representation of the job type
func (jt JobType) String() string {
	return string(jt)
}

// ExecutionStatus represents the status of a job execution
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal checks if the execution status is terminal
func (es ExecutionStatus) IsTerminal() bool {
	return es == ExecutionStatusCompleted || es == ExecutionStatusFailed
}

// Execution is a single run of a background job
type Execution struct {
	ID           string          `json:"id"`
	JobType      JobType         `json:"job_type"`
	Status       ExecutionStatus `json:"status"`
	Trigger      string          `json:"trigger"` // cron or manual
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	Summary      string          `json:"summary,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// ExecutionFilter contains execution filtering options
type ExecutionFilter struct {
	JobType JobType
	Status  ExecutionStatus
}

// Runner executes one job run and returns a short summary of what it did
type Runner func(ctx context.Context) (summary string, err error)
