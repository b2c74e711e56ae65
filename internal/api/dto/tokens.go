package dto

// TransferRequest represents a token transfer request
type TransferRequest struct {
	ToUserID int64  `json:"to_user_id" validate:"required,gt=0"`
	Amount   int64  `json:"amount" validate:"required,token_amount"`
	Type     string `json:"type" validate:"required,oneof=gift family charity"`
}

// ClaimActivityRequest claims a scheduled reward
type ClaimActivityRequest struct {
	ActivityType string `json:"activity_type" validate:"required,oneof=daily_login mood_entry challenge_complete video_upload"`
}

// AdminCreditRequest credits or debits a user outside the reward schedule
type AdminCreditRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	Amount      int64  `json:"amount" validate:"required,ne=0,min=-1000000000,max=1000000000"`
	Description string `json:"description" validate:"required,max=255"`
}
