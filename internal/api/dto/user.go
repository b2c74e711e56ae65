package dto

import (
	"time"

	"github.com/moodlync/tokencore/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	Role              string     `json:"role"`
	EmotionTokens     int64      `json:"emotion_tokens"`
	IsPremium         bool       `json:"is_premium"`
	PremiumPlanType   *string    `json:"premium_plan_type,omitempty"`
	PremiumExpiryDate *time.Time `json:"premium_expiry_date,omitempty"`
	FamilyPlanOwnerID *int64     `json:"family_plan_owner_id,omitempty"`
	LedgerFrozen      bool       `json:"ledger_frozen"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewUserDTO maps a user to its API representation
func NewUserDTO(u *user.User) *UserDTO {
	return &UserDTO{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		Role:              u.Role,
		EmotionTokens:     u.EmotionTokens,
		IsPremium:         u.IsPremium,
		PremiumPlanType:   u.PremiumPlanType,
		PremiumExpiryDate: u.PremiumExpiryDate,
		FamilyPlanOwnerID: u.FamilyPlanOwnerID,
		LedgerFrozen:      u.LedgerFrozen,
		CreatedAt:         u.CreatedAt,
	}
}

// FamilyMemberRequest links a member to the caller's family plan
type FamilyMemberRequest struct {
	MemberID          int64 `json:"member_id" validate:"required,gt=0"`
	CanTransferTokens bool  `json:"can_transfer_tokens"`
}
