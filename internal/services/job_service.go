package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/job"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

const (
	triggerCron   = "cron"
	triggerManual = "manual"
)

// JobService implements job.Service. It runs the registered runners on their
// cron schedules and records every run as an execution.
type JobService struct {
	repo      job.Repository
	runners   map[job.JobType]job.Runner
	schedules map[job.JobType]string
	timeout   time.Duration
	logger    *logger.Logger

	scheduler    *cron.Cron
	cronEntries  map[job.JobType]cron.EntryID
	entriesMutex sync.RWMutex
	isRunning    bool
	runningMutex sync.RWMutex

	// inFlight keeps two runs of one job type from overlapping
	inFlight   map[job.JobType]bool
	flightLock sync.Mutex
}

// NewJobService creates a new job service
func NewJobService(
	repo job.Repository,
	runners map[job.JobType]job.Runner,
	cfg config.JobsConfig,
	log *logger.Logger,
) job.Service {
	return &JobService{
		repo:    repo,
		runners: runners,
		schedules: map[job.JobType]string{
			job.JobTypePoolDistribution:     cfg.DistributionSchedule,
			job.JobTypeLedgerReconciliation: cfg.ReconcileSchedule,
			job.JobTypePendingSweep:         cfg.SweepSchedule,
		},
		timeout:     cfg.Timeout,
		logger:      log,
		cronEntries: make(map[job.JobType]cron.EntryID),
		inFlight:    make(map[job.JobType]bool),
	}
}

// RunNow executes a job synchronously and returns the finished execution
func (s *JobService) RunNow(ctx context.Context, jobType job.JobType) (*job.Execution, error) {
	if !jobType.IsValid() {
		return nil, errors.BadRequest(fmt.Sprintf("Invalid job type %q", jobType))
	}
	if _, ok := s.runners[jobType]; !ok {
		return nil, errors.NotFound("Job runner")
	}
	return s.execute(ctx, jobType, triggerManual)
}

// ListExecutions lists recorded executions, newest first
func (s *JobService) ListExecutions(ctx context.Context, filter job.ExecutionFilter, limit, offset int) ([]*job.Execution, int64, error) {
	if filter.JobType != "" && !filter.JobType.IsValid() {
		return nil, 0, errors.BadRequest(fmt.Sprintf("Invalid job type %q", filter.JobType))
	}
	return s.repo.ListExecutions(ctx, filter, limit, offset)
}

// Start starts the job scheduler
func (s *JobService) Start(ctx context.Context) error {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	s.scheduler = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
	)

	scheduled := 0
	for _, jobType := range job.AllTypes {
		if _, ok := s.runners[jobType]; !ok {
			continue
		}
		spec := s.schedules[jobType]
		if spec == "" {
			continue
		}
		if err := s.scheduleJob(jobType, spec); err != nil {
			return err
		}
		scheduled++
	}

	s.scheduler.Start()
	s.isRunning = true

	s.logger.WithFields(map[string]interface{}{
		"jobs_scheduled": scheduled,
	}).Info("Job scheduler started")

	return nil
}

// Stop stops the job scheduler and waits for running jobs to finish
func (s *JobService) Stop() error {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.scheduler.Stop().Done()
	s.isRunning = false

	s.entriesMutex.Lock()
	s.cronEntries = make(map[job.JobType]cron.EntryID)
	s.entriesMutex.Unlock()

	s.logger.Info("Job scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *JobService) IsRunning() bool {
	s.runningMutex.RLock()
	defer s.runningMutex.RUnlock()
	return s.isRunning
}

// scheduleJob adds a job to the cron scheduler
func (s *JobService) scheduleJob(jobType job.JobType, spec string) error {
	s.entriesMutex.Lock()
	defer s.entriesMutex.Unlock()

	entryID, err := s.scheduler.AddFunc(spec, func() {
		if _, err := s.execute(context.Background(), jobType, triggerCron); err != nil &&
			!errors.HasCode(err, errors.ErrCodeConflict) {
			s.logger.WithFields(map[string]interface{}{
				"job_type": jobType,
			}).ErrorWithErr(err, "Failed to execute scheduled job")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s: %w", spec, jobType, err)
	}

	s.cronEntries[jobType] = entryID

	s.logger.WithFields(map[string]interface{}{
		"job_type": jobType,
		"schedule": spec,
	}).Info("Job scheduled")

	return nil
}

func (s *JobService) acquire(jobType job.JobType) bool {
	s.flightLock.Lock()
	defer s.flightLock.Unlock()
	if s.inFlight[jobType] {
		return false
	}
	s.inFlight[jobType] = true
	return true
}

func (s *JobService) done(jobType job.JobType) {
	s.flightLock.Lock()
	defer s.flightLock.Unlock()
	delete(s.inFlight, jobType)
}

// execute runs a job and records the execution
func (s *JobService) execute(ctx context.Context, jobType job.JobType, trigger string) (*job.Execution, error) {
	if !s.acquire(jobType) {
		return nil, errors.Conflict(fmt.Sprintf("Job %s is already running", jobType))
	}
	defer s.done(jobType)

	startedAt := time.Now().UTC()
	execution := &job.Execution{
		ID:        uuid.New().String(),
		JobType:   jobType,
		Status:    job.ExecutionStatusRunning,
		Trigger:   trigger,
		StartedAt: startedAt,
	}

	if err := s.repo.CreateExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create execution record: %w", err)
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	summary, err := s.runners[jobType](runCtx)

	completedAt := time.Now().UTC()
	execution.CompletedAt = &completedAt
	execution.DurationMs = completedAt.Sub(startedAt).Milliseconds()
	execution.Summary = summary

	fields := map[string]interface{}{
		"job_type":     jobType,
		"execution_id": execution.ID,
		"trigger":      trigger,
		"duration_ms":  execution.DurationMs,
	}
	if err != nil {
		execution.Status = job.ExecutionStatusFailed
		execution.ErrorMessage = err.Error()
		s.logger.WithFields(fields).ErrorWithErr(err, "Job execution failed")
	} else {
		execution.Status = job.ExecutionStatusCompleted
		fields["summary"] = summary
		s.logger.WithFields(fields).Info("Job execution completed")
	}
	metrics.RecordJobRun(string(jobType), string(execution.Status), completedAt.Sub(startedAt))

	if uerr := s.repo.UpdateExecution(ctx, execution); uerr != nil {
		s.logger.WithFields(fields).ErrorWithErr(uerr, "Failed to record job execution")
	}

	return execution, nil
}

// cronLogger routes cron's own logging into the application logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).ErrorWithErr(err, "cron: "+msg)
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
