package handlers

import (
	"net/http"
	"sort"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// recentActivityLimit is how many ledger rows the activities listing embeds
const recentActivityLimit = 20

// ScheduledReward is one claimable activity and its payout
type ScheduledReward struct {
	ActivityType ledger.ActivityType `json:"activity_type"`
	Tokens       int64               `json:"tokens"`
}

// ActivitiesResponse is the reward schedule plus the caller's recent rows
type ActivitiesResponse struct {
	Schedule []ScheduledReward        `json:"schedule"`
	Recent   []*ledger.RewardActivity `json:"recent"`
}

// GamificationHandler serves reward claims
type GamificationHandler struct {
	ledgerService ledger.Service
	schedule      []ScheduledReward
	logger        *logger.Logger
	validator     *validator.Validator
}

// NewGamificationHandler creates a new gamification handler. rewards is the
// configured reward schedule keyed by activity type.
func NewGamificationHandler(ledgerService ledger.Service, rewards map[string]int64, log *logger.Logger, val *validator.Validator) *GamificationHandler {
	schedule := make([]ScheduledReward, 0, len(rewards))
	for activity, tokens := range rewards {
		at := ledger.ActivityType(activity)
		if !at.IsRewardable() {
			continue
		}
		schedule = append(schedule, ScheduledReward{ActivityType: at, Tokens: tokens})
	}
	sort.Slice(schedule, func(i, j int) bool {
		return schedule[i].ActivityType < schedule[j].ActivityType
	})

	return &GamificationHandler{
		ledgerService: ledgerService,
		schedule:      schedule,
		logger:        log,
		validator:     val,
	}
}

// ListActivities returns the reward schedule and recent ledger rows
// @Summary List reward activities
// @Tags Gamification
// @Produce json
// @Success 200 {object} ActivitiesResponse
// @Security BearerAuth
// @Router /gamification/activities [get]
func (h *GamificationHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	recent, _, err := h.ledgerService.History(r.Context(), userID, recentActivityLimit, 0)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, ActivitiesResponse{
		Schedule: h.schedule,
		Recent:   recent,
	})
}

// Claim credits the scheduled reward for an activity
// @Summary Claim reward
// @Tags Gamification
// @Accept json
// @Produce json
// @Param request body dto.ClaimActivityRequest true "Activity"
// @Success 201 {object} ledger.RewardActivity
// @Failure 409 {object} utils.ErrorResponse "Daily limit reached"
// @Security BearerAuth
// @Router /gamification/activities [post]
func (h *GamificationHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.ClaimActivityRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	row, err := h.ledgerService.Reward(r.Context(), userID, ledger.ActivityType(req.ActivityType))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, row)
}
