package pool

import (
	"math/big"
	"sort"
	"time"
)

// Pool is the singleton token pool. TotalTokens accumulates burns for the
// current DistributionRound.
type Pool struct {
	ID                        int64      `json:"id"`
	TotalTokens               int64      `json:"total_tokens"`
	TargetTokens              int64      `json:"target_tokens"`
	DistributionRound         int64      `json:"distribution_round"`
	NextDistributionDate      *time.Time `json:"next_distribution_date,omitempty"`
	CharityPercentage         int        `json:"charity_percentage"`
	TopContributorsPercentage int        `json:"top_contributors_percentage"`
	MaxTopContributors        int        `json:"max_top_contributors"`
	LastDistributedAt         *time.Time `json:"last_distributed_at,omitempty"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// Settings are the admin-tunable pool parameters
type Settings struct {
	TargetTokens              int64 `json:"target_tokens"`
	CharityPercentage         int   `json:"charity_percentage"`
	TopContributorsPercentage int   `json:"top_contributors_percentage"`
	MaxTopContributors        int   `json:"max_top_contributors"`
}

// Settings returns the pool's current settings
func (p *Pool) Settings() Settings {
	return Settings{
		TargetTokens:              p.TargetTokens,
		CharityPercentage:         p.CharityPercentage,
		TopContributorsPercentage: p.TopContributorsPercentage,
		MaxTopContributors:        p.MaxTopContributors,
	}
}

// Trigger names the condition that fired a distribution
type Trigger string

const (
	TriggerNone      Trigger = ""
	TriggerThreshold Trigger = "threshold"
	TriggerSchedule  Trigger = "schedule"
	TriggerManual    Trigger = "manual"
)

// ShouldDistribute reports whether the pool is due: the target is reached or
// the scheduled date has arrived.
func ShouldDistribute(p *Pool, now time.Time) Trigger {
	if p.TargetTokens > 0 && p.TotalTokens >= p.TargetTokens {
		return TriggerThreshold
	}
	if p.NextDistributionDate != nil && !now.Before(*p.NextDistributionDate) {
		return TriggerSchedule
	}
	return TriggerNone
}

// Contribution is an immutable record of a burn feeding the pool
type Contribution struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	NftID       int64     `json:"nft_id"`
	TokenAmount int64     `json:"token_amount"`
	PoolRound   int64     `json:"pool_round"`
	CreatedAt   time.Time `json:"created_at"`
}

// DistributionStatus is the payout state of a distribution row
type DistributionStatus string

const (
	DistributionPending   DistributionStatus = "pending"
	DistributionCompleted DistributionStatus = "completed"
	DistributionFailed    DistributionStatus = "failed"
)

// IsValid checks if the status is valid
func (s DistributionStatus) IsValid() bool {
	return s == DistributionPending || s == DistributionCompleted || s == DistributionFailed
}

// IsTerminal reports whether the row is paid
func (s DistributionStatus) IsTerminal() bool {
	return s == DistributionCompleted
}

// CanTransition allows pending -> completed|failed and retries of failed rows
func (s DistributionStatus) CanTransition(to DistributionStatus) bool {
	switch s {
	case DistributionPending, DistributionFailed:
		return to == DistributionCompleted || to == DistributionFailed
	}
	return false
}

// Distribution is one payout of a round, to a user or a charity
type Distribution struct {
	ID          int64              `json:"id"`
	PoolRound   int64              `json:"pool_round"`
	UserID      *int64             `json:"user_id,omitempty"`
	IsCharity   bool               `json:"is_charity"`
	CharityName *string            `json:"charity_name,omitempty"`
	TokenAmount int64              `json:"token_amount"`
	Rank        *int               `json:"rank,omitempty"`
	Status      DistributionStatus `json:"status"`
	Attempts    int                `json:"attempts"`
	LastError   *string            `json:"last_error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ContributorTotal is a user's aggregate contribution within a round
type ContributorTotal struct {
	UserID              int64     `json:"user_id"`
	Total               int64     `json:"total"`
	FirstContributedAt  time.Time `json:"first_contributed_at"`
	FirstContributionID int64     `json:"-"`
	Rank                int       `json:"rank"`
}

// Rank orders totals by contribution descending; ties go to the earliest
// first contribution. Rank fields are set 1..n.
func Rank(totals []ContributorTotal) []ContributorTotal {
	ranked := make([]ContributorTotal, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if !a.FirstContributedAt.Equal(b.FirstContributedAt) {
			return a.FirstContributedAt.Before(b.FirstContributedAt)
		}
		return a.FirstContributionID < b.FirstContributionID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Payout is a top contributor's share
type Payout struct {
	UserID      int64 `json:"user_id"`
	Rank        int   `json:"rank"`
	Contributed int64 `json:"contributed"`
	Amount      int64 `json:"amount"`
}

// CharityPayout is a charity's flat share
type CharityPayout struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// Allocation is the full split of a round
type Allocation struct {
	Total        int64           `json:"total"`
	TopShare     int64           `json:"top_share"`
	CharityShare int64           `json:"charity_share"`
	Payouts      []Payout        `json:"payouts"`
	Charity      []CharityPayout `json:"charity"`
}

// Allocate splits total between the top contributors and the charities.
//
// The charity share is floor(total * charityPct / 100); the rest goes to the
// top MaxTopContributors of ranked, proportional to their contribution. Integer
// remainders go one token at a time in rank order. The charity share is split
// equally; its remainder goes to the first charity. With no contributors the
// whole pool goes to charity. The amounts always sum to total.
func Allocate(total int64, ranked []ContributorTotal, s Settings, charities []string) Allocation {
	a := Allocation{Total: total}
	if total <= 0 {
		return a
	}

	top := ranked
	if s.MaxTopContributors > 0 && len(top) > s.MaxTopContributors {
		top = top[:s.MaxTopContributors]
	}

	var topSum int64
	for _, c := range top {
		topSum += c.Total
	}

	a.CharityShare = mulDiv(total, int64(s.CharityPercentage), 100)
	a.TopShare = total - a.CharityShare
	if topSum <= 0 {
		a.CharityShare += a.TopShare
		a.TopShare = 0
	}

	if a.TopShare > 0 {
		var allocated int64
		a.Payouts = make([]Payout, len(top))
		for i, c := range top {
			amount := mulDiv(a.TopShare, c.Total, topSum)
			a.Payouts[i] = Payout{UserID: c.UserID, Rank: i + 1, Contributed: c.Total, Amount: amount}
			allocated += amount
		}
		for i := 0; allocated < a.TopShare; i = (i + 1) % len(a.Payouts) {
			a.Payouts[i].Amount++
			allocated++
		}
	}

	if a.CharityShare > 0 && len(charities) > 0 {
		n := int64(len(charities))
		each := a.CharityShare / n
		a.Charity = make([]CharityPayout, len(charities))
		for i, name := range charities {
			a.Charity[i] = CharityPayout{Name: name, Amount: each}
		}
		a.Charity[0].Amount += a.CharityShare - each*n
	}

	return a
}

// mulDiv returns floor(a*b/c) without intermediate overflow
func mulDiv(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	r := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return r.Quo(r, big.NewInt(c)).Int64()
}

// DistributionResult reports a trigger evaluation
type DistributionResult struct {
	Trigger   Trigger         `json:"trigger"`
	Round     int64           `json:"round"`
	NextRound int64           `json:"next_round"`
	Total     int64           `json:"total"`
	Rows      []*Distribution `json:"rows"`
	Completed int             `json:"completed"`
	Failed    int             `json:"failed"`
}

// Distributed reports whether a round was closed
func (r *DistributionResult) Distributed() bool {
	return r.Trigger != TriggerNone && r.NextRound > r.Round
}

// SweepResult reports a payout retry sweep
type SweepResult struct {
	Retried   int `json:"retried"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
