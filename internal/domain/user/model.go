package user

import "time"

// User is the root aggregate of the token economy
type User struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	EmotionTokens     int64      `json:"emotion_tokens"`
	IsPremium         bool       `json:"is_premium"`
	PremiumPlanType   *string    `json:"premium_plan_type,omitempty"`
	PremiumExpiryDate *time.Time `json:"premium_expiry_date,omitempty"`
	TrialStartDate    *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate      *time.Time `json:"trial_end_date,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	ReferredBy        *int64     `json:"referred_by,omitempty"`
	FamilyPlanOwnerID *int64     `json:"family_plan_owner_id,omitempty"`
	LedgerFrozen      bool       `json:"ledger_frozen"`
	DeletedAt         *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsDeleted reports whether the user has been anonymized
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// User roles
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleCharity = "charity"
)

// PremiumState is the slice of user columns mirrored from the subscription
type PremiumState struct {
	IsPremium         bool
	PremiumPlanType   *string
	PremiumExpiryDate *time.Time
	TrialStartDate    *time.Time
	TrialEndDate      *time.Time
	CancelledAt       *time.Time
}

// FamilyRelationship links a family plan owner to a member
type FamilyRelationship struct {
	OwnerID           int64     `json:"owner_id"`
	MemberID          int64     `json:"member_id"`
	CanTransferTokens bool      `json:"can_transfer_tokens"`
	CreatedAt         time.Time `json:"created_at"`
}
