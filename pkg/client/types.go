package client

import "time"

// User represents an account
type User struct {
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

// Balance is a user's token position
type Balance struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
	Frozen  bool  `json:"frozen"`
}

// LedgerEntry is one reward ledger row. TokensEarned is negative for debits.
type LedgerEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	TokensEarned int64     `json:"tokens_earned"`
	Description  string    `json:"description"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transfer moves tokens between users
type Transfer struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	FromUserID    int64     `json:"from_user_id"`
	ToUserID      int64     `json:"to_user_id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`   // gift, family, charity
	Status        string    `json:"status"` // pending, completed, failed, canceled
	FailureReason *string   `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Subscription is the stored plan row
type Subscription struct {
	UserID         int64      `json:"user_id"`
	Tier           string     `json:"tier"`
	IsActive       bool       `json:"is_active"`
	StartDate      time.Time  `json:"start_date"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	RenewsAt       *time.Time `json:"renews_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	HadTrialBefore bool       `json:"had_trial_before"`
}

// SubscriptionStatus is the resolved entitlement of a user
type SubscriptionStatus struct {
	Subscription  *Subscription `json:"subscription"`
	Entitlement   string        `json:"entitlement"`
	DaysRemaining int           `json:"days_remaining"`
	InheritedFrom *int64        `json:"inherited_from,omitempty"`
}

// Nft is an emotional NFT
type Nft struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Emotion        string     `json:"emotion"`
	Rarity         string     `json:"rarity"`
	EvolutionLevel int        `json:"evolution_level"`
	MintStatus     string     `json:"mint_status"` // unminted, minted, burned
	TokensCost     int64      `json:"tokens_cost"`
	MintedAt       *time.Time `json:"minted_at,omitempty"`
	BurnedAt       *time.Time `json:"burned_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BurnResult is returned by a burn
type BurnResult struct {
	Nft             *Nft  `json:"nft"`
	ContributionID  int64 `json:"contribution_id"`
	PoolRound       int64 `json:"pool_round"`
	PoolTotalTokens int64 `json:"pool_total_tokens"`
}

// Pool is the shared token pool
type Pool struct {
	TotalTokens               int64      `json:"total_tokens"`
	TargetTokens              int64      `json:"target_tokens"`
	DistributionRound         int64      `json:"distribution_round"`
	NextDistributionDate      *time.Time `json:"next_distribution_date,omitempty"`
	CharityPercentage         int        `json:"charity_percentage"`
	TopContributorsPercentage int        `json:"top_contributors_percentage"`
	MaxTopContributors        int        `json:"max_top_contributors"`
	LastDistributedAt         *time.Time `json:"last_distributed_at,omitempty"`
}

// PoolSettings are the tunable pool parameters
type PoolSettings struct {
	TargetTokens              int64 `json:"target_tokens"`
	CharityPercentage         int   `json:"charity_percentage"`
	TopContributorsPercentage int   `json:"top_contributors_percentage"`
	MaxTopContributors        int   `json:"max_top_contributors"`
}

// Contributor is a ranked pool contributor
type Contributor struct {
	UserID             int64     `json:"user_id"`
	Total              int64     `json:"total"`
	FirstContributedAt time.Time `json:"first_contributed_at"`
	Rank               int       `json:"rank"`
}

// Distribution is one payout row of a closed round
type Distribution struct {
	ID          int64     `json:"id"`
	PoolRound   int64     `json:"pool_round"`
	UserID      *int64    `json:"user_id,omitempty"`
	IsCharity   bool      `json:"is_charity"`
	CharityName *string   `json:"charity_name,omitempty"`
	TokenAmount int64     `json:"token_amount"`
	Rank        *int      `json:"rank,omitempty"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	LastError   *string   `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DistributionResult is the outcome of a distribution check
type DistributionResult struct {
	Trigger   string          `json:"trigger"`
	Round     int64           `json:"round"`
	NextRound int64           `json:"next_round"`
	Total     int64           `json:"total"`
	Rows      []*Distribution `json:"rows"`
	Completed int             `json:"completed"`
	Failed    int             `json:"failed"`
}

// Divergence is a user whose balance differs from the ledger sum
type Divergence struct {
	UserID    int64 `json:"user_id"`
	Balance   int64 `json:"balance"`
	LedgerSum int64 `json:"ledger_sum"`
}

// ReconcileReport summarises a full reconciliation pass
type ReconcileReport struct {
	Checked   int          `json:"checked"`
	Diverged  []Divergence `json:"diverged"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
}

// JobExecution is one recorded background job run
type JobExecution struct {
	ID           string     `json:"id"`
	JobType      string     `json:"job_type"`
	Status       string     `json:"status"`
	Trigger      string     `json:"trigger"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
	Summary      string     `json:"summary,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int `json:"page,omitempty"`      // Page number (1-based)
	PageSize int `json:"page_size,omitempty"` // Items per page
}

// Page is a paginated list response
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
