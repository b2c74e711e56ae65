package dto

// PoolSettingsRequest changes the tunable pool parameters
type PoolSettingsRequest struct {
	TargetTokens              int64 `json:"target_tokens" validate:"required,token_amount"`
	CharityPercentage         int   `json:"charity_percentage" validate:"gte=0,lte=100"`
	TopContributorsPercentage int   `json:"top_contributors_percentage" validate:"gte=0,lte=100"`
	MaxTopContributors        int   `json:"max_top_contributors" validate:"required,min=1,max=1000"`
}

// DistributeRequest triggers a distribution check
type DistributeRequest struct {
	Force bool `json:"force"`
}
