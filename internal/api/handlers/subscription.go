package handlers

import (
	"net/http"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// SubscriptionHandler handles subscription requests
type SubscriptionHandler struct {
	service   subscription.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(service subscription.Service, log *logger.Logger, val *validator.Validator) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Get returns the caller's resolved entitlement
// @Summary Get subscription status
// @Tags Subscription
// @Produce json
// @Success 200 {object} subscription.Status
// @Security BearerAuth
// @Router /subscription [get]
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}

// StartTrial starts the one-time trial
// @Summary Start trial
// @Tags Subscription
// @Produce json
// @Success 200 {object} subscription.Status
// @Failure 409 {object} utils.ErrorResponse "Trial already used"
// @Security BearerAuth
// @Router /subscription/trial [post]
func (h *SubscriptionHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.service.StartTrial(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}

// Subscribe purchases or extends a paid plan
// @Summary Subscribe
// @Tags Subscription
// @Accept json
// @Produce json
// @Param request body dto.SubscribeRequest true "Plan"
// @Success 200 {object} subscription.Status
// @Security BearerAuth
// @Router /subscription/premium [post]
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.SubscribeRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	status, err := h.service.Subscribe(r.Context(), userID, subscription.Tier(req.Tier), req.Periods)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}

// Cancel stops renewal of the caller's plan
// @Summary Cancel subscription
// @Tags Subscription
// @Produce json
// @Success 200 {object} subscription.Status
// @Security BearerAuth
// @Router /subscription/cancel [post]
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.service.Cancel(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}
