package nft

import (
	"time"

	"github.com/moodlync/tokencore/internal/pkg/errors"
)

// MintStatus is the lifecycle state of an emotional NFT
type MintStatus string

const (
	StatusUnminted MintStatus = "unminted"
	StatusMinted   MintStatus = "minted"
	StatusBurned   MintStatus = "burned"
)

// IsValid checks if the status is valid
func (s MintStatus) IsValid() bool {
	return s == StatusUnminted || s == StatusMinted || s == StatusBurned
}

// IsTerminal reports whether no transition leaves s
func (s MintStatus) IsTerminal() bool {
	return s == StatusBurned
}

// CanTransition reports whether s -> to is an edge of unminted -> minted -> burned
func (s MintStatus) CanTransition(to MintStatus) bool {
	switch s {
	case StatusUnminted:
		return to == StatusMinted
	case StatusMinted:
		return to == StatusBurned
	}
	return false
}

// Rarity of an NFT
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IsValid checks if the rarity is valid
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// EmotionalNft is a collectible minted from a user's emotion history
type EmotionalNft struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Emotion        string     `json:"emotion"`
	Rarity         Rarity     `json:"rarity"`
	EvolutionLevel int        `json:"evolution_level"`
	MintStatus     MintStatus `json:"mint_status"`
	TokensCost     int64      `json:"tokens_cost"`
	MintedAt       *time.Time `json:"minted_at,omitempty"`
	BurnedAt       *time.Time `json:"burned_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (n *EmotionalNft) transition(userID int64, to MintStatus) error {
	if n.UserID != userID || !n.MintStatus.CanTransition(to) {
		return errors.InvalidNftState(n.ID, string(n.MintStatus))
	}
	n.MintStatus = to
	return nil
}

// Mint moves an unminted NFT owned by userID to minted
func (n *EmotionalNft) Mint(userID int64, now time.Time) error {
	if err := n.transition(userID, StatusMinted); err != nil {
		return err
	}
	n.MintedAt = &now
	n.UpdatedAt = now
	return nil
}

// Burn moves a minted NFT owned by userID to burned
func (n *EmotionalNft) Burn(userID int64, now time.Time) error {
	if err := n.transition(userID, StatusBurned); err != nil {
		return err
	}
	n.BurnedAt = &now
	n.UpdatedAt = now
	return nil
}

// Evolve raises the evolution level of a minted NFT by one, up to maxLevel
func (n *EmotionalNft) Evolve(userID int64, maxLevel int, now time.Time) error {
	if n.UserID != userID || n.MintStatus != StatusMinted {
		return errors.InvalidNftState(n.ID, string(n.MintStatus))
	}
	if n.EvolutionLevel >= maxLevel {
		return errors.Conflict("NFT is already at the maximum evolution level")
	}
	n.EvolutionLevel++
	n.UpdatedAt = now
	return nil
}
