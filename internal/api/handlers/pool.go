package handlers

import (
	"net/http"
	"time"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// PoolNotifier is told about pool changes made outside the distributor
type PoolNotifier interface {
	PoolChanged(p *pool.Pool)
}

// PoolHandler handles token pool requests
type PoolHandler struct {
	service   pool.Service
	notifier  PoolNotifier
	logger    *logger.Logger
	validator *validator.Validator
}

// NewPoolHandler creates a new pool handler. notifier may be nil.
func NewPoolHandler(service pool.Service, notifier PoolNotifier, log *logger.Logger, val *validator.Validator) *PoolHandler {
	return &PoolHandler{
		service:   service,
		notifier:  notifier,
		logger:    log,
		validator: val,
	}
}

// Get returns the pool state
// @Summary Get pool
// @Tags Pool
// @Produce json
// @Success 200 {object} pool.Pool
// @Security BearerAuth
// @Router /pool [get]
func (h *PoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, p)
}

// Contributors returns the ranked contributors of a round
// @Summary List pool contributors
// @Tags Pool
// @Produce json
// @Param round query int false "Round; defaults to the current round"
// @Success 200 {array} pool.ContributorTotal
// @Security BearerAuth
// @Router /pool/contributors [get]
func (h *PoolHandler) Contributors(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	contributors, err := h.service.Contributors(r.Context(), round)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, contributors)
}

// Distributions returns the payout rows of a round
// @Summary List pool distributions
// @Tags Pool
// @Produce json
// @Param round query int false "Round; defaults to the last closed round"
// @Success 200 {array} pool.Distribution
// @Security BearerAuth
// @Router /pool/distributions [get]
func (h *PoolHandler) Distributions(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	rows, err := h.service.Distributions(r.Context(), round)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, rows)
}

// Distribute runs a distribution check, or forces one
// @Summary Distribute pool
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.DistributeRequest false "Options"
// @Success 200 {object} pool.DistributionResult
// @Security BearerAuth
// @Router /admin/pool/distribute [post]
func (h *PoolHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	var req dto.DistributeRequest
	if r.ContentLength > 0 && !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	result, err := h.service.Distribute(r.Context(), time.Now().UTC(), req.Force)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"force":   req.Force,
		"trigger": result.Trigger,
		"round":   result.Round,
	}).Info("Manual pool distribution")

	utils.WriteSuccess(w, http.StatusOK, result)
}

// UpdateSettings changes the pool parameters
// @Summary Update pool settings
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.PoolSettingsRequest true "Settings"
// @Success 200 {object} pool.Pool
// @Security BearerAuth
// @Router /admin/pool [put]
func (h *PoolHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.PoolSettingsRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	p, err := h.service.UpdateSettings(r.Context(), pool.Settings{
		TargetTokens:              req.TargetTokens,
		CharityPercentage:         req.CharityPercentage,
		TopContributorsPercentage: req.TopContributorsPercentage,
		MaxTopContributors:        req.MaxTopContributors,
	})
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	// a lower target may already be met
	if h.notifier != nil {
		h.notifier.PoolChanged(p)
	}

	utils.WriteSuccess(w, http.StatusOK, p)
}

func (h *PoolHandler) round(w http.ResponseWriter, r *http.Request) (int64, bool) {
	round, err := queryInt64(r, "round")
	if err != nil || round < 0 {
		utils.WriteError(w, errors.BadRequest("Invalid round"))
		return 0, false
	}
	return round, true
}
