package dto

// LoginRequest represents a login request. The password rule is not
// repeated here so a failed login reveals nothing about the policy.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// RegisterRequest represents a registration request. ReferredBy credits the
// referring user with the referral reward once the account exists.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Username   string `json:"username,omitempty" validate:"omitempty,username"`
	ReferredBy *int64 `json:"referredBy,omitempty" validate:"omitempty,gt=0"`
}

// AuthResponse carries a fresh token pair
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         *UserDTO `json:"user"`
}

// RefreshTokenRequest exchanges a refresh token; the refreshToken cookie is
// used when the body is empty
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
