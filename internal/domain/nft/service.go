package nft

import "context"

// Service defines NFT lifecycle operations
type Service interface {
	// Create creates an unminted NFT at evolution level 1
	Create(ctx context.Context, userID int64, emotion string, rarity Rarity) (*EmotionalNft, error)

	// Get returns an NFT owned by userID
	Get(ctx context.Context, id, userID int64) (*EmotionalNft, error)

	// List lists a user's NFTs, optionally filtered by status
	List(ctx context.Context, userID int64, status MintStatus) ([]*EmotionalNft, error)

	// Mint charges tokensCost and moves the NFT to minted
	Mint(ctx context.Context, id, userID int64) (*EmotionalNft, error)

	// Evolve raises the evolution level of a minted NFT
	Evolve(ctx context.Context, id, userID int64) (*EmotionalNft, error)

	// Burn moves the NFT to burned and contributes tokensCost to the pool
	Burn(ctx context.Context, id, userID int64) (*BurnResult, error)
}

// BurnResult is returned by a successful burn
type BurnResult struct {
	Nft             *EmotionalNft `json:"nft"`
	ContributionID  int64         `json:"contribution_id"`
	PoolRound       int64         `json:"pool_round"`
	PoolTotalTokens int64         `json:"pool_total_tokens"`
}
