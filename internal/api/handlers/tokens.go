package handlers

import (
	"net/http"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/transfer"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// TokenHandler handles balance, history and transfer requests
type TokenHandler struct {
	ledgerService   ledger.Service
	transferService transfer.Service
	logger          *logger.Logger
	validator       *validator.Validator
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(
	ledgerService ledger.Service,
	transferService transfer.Service,
	log *logger.Logger,
	val *validator.Validator,
) *TokenHandler {
	return &TokenHandler{
		ledgerService:   ledgerService,
		transferService: transferService,
		logger:          log,
		validator:       val,
	}
}

// Balance returns the caller's token balance
// @Summary Get token balance
// @Tags Tokens
// @Produce json
// @Success 200 {object} ledger.Balance
// @Security BearerAuth
// @Router /tokens [get]
func (h *TokenHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	balance, err := h.ledgerService.Balance(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, balance)
}

// History returns the caller's ledger rows
// @Summary Get token history
// @Tags Tokens
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Security BearerAuth
// @Router /tokens/history [get]
func (h *TokenHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	params := utils.ParsePaginationParams(r)
	rows, total, err := h.ledgerService.History(r.Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPage(rows, params, total))
}

// Transfer sends tokens to another user
// @Summary Transfer tokens
// @Description Gift, family or charity transfer. The whole transfer is atomic.
// @Tags Tokens
// @Accept json
// @Produce json
// @Param request body dto.TransferRequest true "Transfer"
// @Success 201 {object} transfer.Transfer
// @Failure 403 {object} utils.ErrorResponse "Transfer not permitted"
// @Failure 422 {object} utils.ErrorResponse "Insufficient tokens"
// @Failure 423 {object} utils.ErrorResponse "Ledger frozen"
// @Security BearerAuth
// @Router /tokens/transfer [post]
func (h *TokenHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	t, err := h.transferService.Transfer(r.Context(), userID, req.ToUserID, req.Amount, transfer.Type(req.Type))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, t)
}

// ListTransfers lists transfers sent or received by the caller
// @Summary List transfers
// @Tags Tokens
// @Produce json
// @Param status query string false "pending, completed, failed or canceled"
// @Param type query string false "gift, family or charity"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Security BearerAuth
// @Router /tokens/transfers [get]
func (h *TokenHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter := transfer.Filter{
		Status: transfer.Status(r.URL.Query().Get("status")),
		Type:   transfer.Type(r.URL.Query().Get("type")),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		utils.WriteError(w, errors.BadRequest("Invalid status"))
		return
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		utils.WriteError(w, errors.BadRequest("Invalid type"))
		return
	}

	params := utils.ParsePaginationParams(r)
	transfers, total, err := h.transferService.List(r.Context(), userID, filter, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPage(transfers, params, total))
}

// GetTransfer returns one transfer visible to the caller
// @Summary Get transfer
// @Tags Tokens
// @Produce json
// @Param id path int true "Transfer ID"
// @Success 200 {object} transfer.Transfer
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /tokens/transfers/{id} [get]
func (h *TokenHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.transferService.Get(r.Context(), id, userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, t)
}

// CancelTransfer cancels a pending transfer sent by the caller
// @Summary Cancel transfer
// @Tags Tokens
// @Produce json
// @Param id path int true "Transfer ID"
// @Success 200 {object} transfer.Transfer
// @Failure 409 {object} utils.ErrorResponse "Transfer is no longer pending"
// @Security BearerAuth
// @Router /tokens/transfers/{id}/cancel [post]
func (h *TokenHandler) CancelTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.transferService.Cancel(r.Context(), id, userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, t)
}
