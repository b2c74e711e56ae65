package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moodlync/tokencore/internal/domain/job"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobService job.Service
	logger     *logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService job.Service, log *logger.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     log,
	}
}

// ListExecutions lists recorded job runs
// @Summary List job executions
// @Tags Admin
// @Produce json
// @Param job_type query string false "pool_distribution, ledger_reconciliation or pending_sweep"
// @Param status query string false "running, completed or failed"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Security BearerAuth
// @Router /admin/jobs [get]
func (h *JobHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	filter := job.ExecutionFilter{
		JobType: job.JobType(r.URL.Query().Get("job_type")),
		Status:  job.ExecutionStatus(r.URL.Query().Get("status")),
	}

	params := utils.ParsePaginationParams(r)
	executions, total, err := h.jobService.ListExecutions(r.Context(), filter, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPage(executions, params, total))
}

// RunJob executes a job immediately
// @Summary Run job
// @Tags Admin
// @Produce json
// @Param type path string true "Job type"
// @Success 200 {object} job.Execution
// @Failure 409 {object} utils.ErrorResponse "Job already running"
// @Security BearerAuth
// @Router /admin/jobs/{type}/run [post]
func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	jobType := job.JobType(chi.URLParam(r, "type"))
	if !jobType.IsValid() {
		utils.WriteError(w, errors.BadRequest("Invalid job type"))
		return
	}

	execution, err := h.jobService.RunNow(r.Context(), jobType)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job_type":     jobType,
		"execution_id": execution.ID,
		"status":       execution.Status,
	}).Info("Job run manually")

	utils.WriteSuccess(w, http.StatusOK, execution)
}
