package ledger

import "time"

// ActivityType is the closed set of reasons a ledger row is written
type ActivityType string

const (
	ActivityDailyLogin        ActivityType = "daily_login"
	ActivityMoodEntry         ActivityType = "mood_entry"
	ActivityChallengeComplete ActivityType = "challenge_complete"
	ActivityReferral          ActivityType = "referral"
	ActivityVideoUpload       ActivityType = "video_upload"
	ActivityNftMint           ActivityType = "nft_mint"
	ActivityTransferIn        ActivityType = "transfer_in"
	ActivityTransferOut       ActivityType = "transfer_out"
	ActivityPoolPayout        ActivityType = "pool_payout"
	ActivitySpend             ActivityType = "spend"
	ActivityAdminAdjustment   ActivityType = "admin_adjustment"
)

// IsValid checks if the activity type is valid
func (a ActivityType) IsValid() bool {
	return a.IsCredit() || a.IsDebit()
}

// IsCredit reports whether the activity may add tokens
func (a ActivityType) IsCredit() bool {
	switch a {
	case ActivityDailyLogin, ActivityMoodEntry, ActivityChallengeComplete, ActivityReferral,
		ActivityVideoUpload, ActivityTransferIn, ActivityPoolPayout, ActivityAdminAdjustment:
		return true
	}
	return false
}

// IsDebit reports whether the activity may remove tokens
func (a ActivityType) IsDebit() bool {
	switch a {
	case ActivityNftMint, ActivityTransferOut, ActivitySpend, ActivityAdminAdjustment:
		return true
	}
	return false
}

// IsRewardable reports whether users may claim the activity from the reward schedule
func (a ActivityType) IsRewardable() bool {
	switch a {
	case ActivityDailyLogin, ActivityMoodEntry, ActivityChallengeComplete, ActivityVideoUpload:
		return true
	}
	return false
}

// RewardActivity is an append-only ledger row. TokensEarned is negative for
// debits.
type RewardActivity struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	ActivityType ActivityType `json:"activity_type"`
	TokensEarned int64        `json:"tokens_earned"`
	Description  string       `json:"description"`
	BalanceAfter int64        `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Balance is a user's current token position
type Balance struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
	Frozen  bool  `json:"frozen"`
}

// Divergence is a user whose stored balance differs from the ledger sum
type Divergence struct {
	UserID    int64 `json:"user_id"`
	Balance   int64 `json:"balance"`
	LedgerSum int64 `json:"ledger_sum"`
}

// Delta returns balance minus ledger sum
func (d Divergence) Delta() int64 {
	return d.Balance - d.LedgerSum
}

// ReconcileResult is the outcome of reconciling one user
type ReconcileResult struct {
	UserID     int64 `json:"user_id"`
	Balance    int64 `json:"balance"`
	LedgerSum  int64 `json:"ledger_sum"`
	Consistent bool  `json:"consistent"`
	Frozen     bool  `json:"frozen"`
}

// ReconcileReport summarises a full reconciliation pass
type ReconcileReport struct {
	Checked   int          `json:"checked"`
	Diverged  []Divergence `json:"diverged"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
}
