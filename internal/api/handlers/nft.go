package handlers

import (
	"context"
	"net/http"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/domain/nft"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// NftHandler handles emotional NFT requests
type NftHandler struct {
	service   nft.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewNftHandler creates a new NFT handler
func NewNftHandler(service nft.Service, log *logger.Logger, val *validator.Validator) *NftHandler {
	return &NftHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// List lists the caller's NFTs
// @Summary List NFTs
// @Tags NFTs
// @Produce json
// @Param status query string false "unminted, minted or burned"
// @Success 200 {array} nft.EmotionalNft
// @Security BearerAuth
// @Router /nfts [get]
func (h *NftHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	nfts, err := h.service.List(r.Context(), userID, nft.MintStatus(r.URL.Query().Get("status")))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nfts)
}

// Create creates an unminted NFT
// @Summary Create NFT
// @Tags NFTs
// @Accept json
// @Produce json
// @Param request body dto.CreateNftRequest true "NFT"
// @Success 201 {object} nft.EmotionalNft
// @Security BearerAuth
// @Router /nfts [post]
func (h *NftHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateNftRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	n, err := h.service.Create(r.Context(), userID, req.Emotion, nft.Rarity(req.Rarity))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, n)
}

// Mint charges the mint cost and mints the NFT
// @Summary Mint NFT
// @Tags NFTs
// @Produce json
// @Param id path int true "NFT ID"
// @Success 200 {object} nft.EmotionalNft
// @Failure 402 {object} utils.ErrorResponse "Subscription expired"
// @Failure 409 {object} utils.ErrorResponse "Invalid NFT state"
// @Failure 422 {object} utils.ErrorResponse "Insufficient tokens"
// @Security BearerAuth
// @Router /nfts/{id}/mint [post]
func (h *NftHandler) Mint(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Mint)
}

// Evolve raises the NFT's evolution level
// @Summary Evolve NFT
// @Tags NFTs
// @Produce json
// @Param id path int true "NFT ID"
// @Success 200 {object} nft.EmotionalNft
// @Failure 409 {object} utils.ErrorResponse "Invalid NFT state"
// @Security BearerAuth
// @Router /nfts/{id}/evolve [post]
func (h *NftHandler) Evolve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Evolve)
}

// Burn burns a minted NFT into the pool
// @Summary Burn NFT
// @Tags NFTs
// @Produce json
// @Param id path int true "NFT ID"
// @Success 200 {object} nft.BurnResult
// @Failure 409 {object} utils.ErrorResponse "Invalid NFT state"
// @Security BearerAuth
// @Router /nfts/{id}/burn [post]
func (h *NftHandler) Burn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.service.Burn(r.Context(), id, userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}

func (h *NftHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id, userID int64) (*nft.EmotionalNft, error),
) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	n, err := op(r.Context(), id, userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, n)
}
