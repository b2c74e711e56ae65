package handlers

import (
	"net/http"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/api/middleware"
	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// AdminHandler handles ledger administration
type AdminHandler struct {
	ledgerService ledger.Service
	logger        *logger.Logger
	validator     *validator.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(ledgerService ledger.Service, log *logger.Logger, val *validator.Validator) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
		logger:        log,
		validator:     val,
	}
}

// CreditTokens adjusts a user's balance. Negative amounts debit.
// @Summary Adjust tokens
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.AdminCreditRequest true "Adjustment"
// @Success 201 {object} ledger.RewardActivity
// @Failure 422 {object} utils.ErrorResponse "Insufficient tokens"
// @Security BearerAuth
// @Router /admin/tokens/credit [post]
func (h *AdminHandler) CreditTokens(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminCreditRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	var (
		row *ledger.RewardActivity
		err error
	)
	if req.Amount > 0 {
		row, err = h.ledgerService.Credit(r.Context(), req.UserID, ledger.ActivityAdminAdjustment, req.Amount, req.Description)
	} else {
		row, err = h.ledgerService.Debit(r.Context(), req.UserID, ledger.ActivityAdminAdjustment, -req.Amount, req.Description)
	}
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	adminID, _ := middleware.GetUserID(r)
	h.logger.WithFields(map[string]interface{}{
		"admin_id": adminID,
		"user_id":  req.UserID,
		"amount":   req.Amount,
	}).Info("Admin token adjustment")

	utils.WriteSuccess(w, http.StatusCreated, row)
}

// Reconcile checks every balance against its ledger
// @Summary Reconcile ledger
// @Tags Admin
// @Produce json
// @Success 200 {object} ledger.ReconcileReport
// @Security BearerAuth
// @Router /admin/ledger/reconcile [post]
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerService.ReconcileAll(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, report)
}

// Unfreeze lifts a ledger freeze
// @Summary Unfreeze ledger
// @Tags Admin
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} ledger.Balance
// @Security BearerAuth
// @Router /admin/ledger/{userId}/unfreeze [post]
func (h *AdminHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.ledgerService.Unfreeze(r.Context(), userID); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	balance, err := h.ledgerService.Balance(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, balance)
}
