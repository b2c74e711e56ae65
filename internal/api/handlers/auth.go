package handlers

import (
	"net/http"

	"github.com/moodlync/tokencore/internal/api/dto"
	"github.com/moodlync/tokencore/internal/auth"
	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService user.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticate user with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"email": req.Email,
		}).Warn("Authentication failed")
		utils.WriteServiceError(w, err)
		return
	}

	h.issueTokens(w, u, http.StatusOK)

	h.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
	}).Info("User logged in")
}

// Register handles user registration
// @Summary User registration
// @Description Register a new user account with a free subscription
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User successfully registered"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Register(r.Context(), req.Email, req.Username, req.Password, req.ReferredBy)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	h.issueTokens(w, u, http.StatusCreated)
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchange a refresh token for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.AuthResponse "New tokens generated"
// @Failure 401 {object} utils.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if cookie, err := r.Cookie("refreshToken"); err == nil && r.ContentLength == 0 {
		req.RefreshToken = cookie.Value
	} else if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	claims, err := auth.ParseClaims(req.RefreshToken, h.config.Auth.JWTSecret, auth.TokenRefresh)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid refresh token"))
		return
	}

	// deleted users lose their sessions
	u, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid refresh token"))
		return
	}

	h.issueTokens(w, u, http.StatusOK)
}

// Logout handles user logout
// @Summary User logout
// @Description Clear the session cookies
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, "accessToken", "", -1)
	h.setCookie(w, "refreshToken", "", -1)
	utils.WriteMessage(w, "Logged out successfully")
}

// Me returns the current user's information
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserDTO "User information"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// DeleteMe anonymizes the current user
// @Summary Delete account
// @Description Anonymize the current user; token history is kept
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /auth/me [delete]
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	h.setCookie(w, "accessToken", "", -1)
	h.setCookie(w, "refreshToken", "", -1)
	utils.WriteMessage(w, "Account deleted")
}

// AddFamilyMember links a member to the caller's family plan
// @Summary Add family member
// @Tags Auth
// @Accept json
// @Param request body dto.FamilyMemberRequest true "Member"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse "No active family plan"
// @Security BearerAuth
// @Router /family/members [post]
func (h *AuthHandler) AddFamilyMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.FamilyMemberRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.userService.LinkFamilyMember(r.Context(), userID, req.MemberID, req.CanTransferTokens); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	utils.WriteMessage(w, "Family member added")
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, u *user.User, status int) {
	tokens, err := auth.MintTokens(
		u.ID,
		u.Email,
		u.Role,
		h.config.Auth.JWTSecret,
		h.config.Auth.AccessTokenExpiry,
		h.config.Auth.RefreshTokenExpiry,
	)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	h.setCookie(w, "accessToken", tokens.AccessToken, int(h.config.Auth.AccessTokenExpiry.Seconds()))
	h.setCookie(w, "refreshToken", tokens.RefreshToken, int(h.config.Auth.RefreshTokenExpiry.Seconds()))

	utils.WriteSuccess(w, status, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         dto.NewUserDTO(u),
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}
