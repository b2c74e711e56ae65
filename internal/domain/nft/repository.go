package nft

import "context"

// Repository defines the interface for NFT data access
type Repository interface {
	// Create creates a new NFT
	Create(ctx context.Context, n *EmotionalNft) error

	// GetByID retrieves an NFT by ID
	GetByID(ctx context.Context, id int64) (*EmotionalNft, error)

	// GetForUpdate retrieves an NFT and locks its row for the open transaction
	GetForUpdate(ctx context.Context, id int64) (*EmotionalNft, error)

	// Update persists status, evolution level and timestamps
	Update(ctx context.Context, n *EmotionalNft) error

	// ListByUser lists a user's NFTs, newest first
	ListByUser(ctx context.Context, userID int64, status MintStatus) ([]*EmotionalNft, error)
}
