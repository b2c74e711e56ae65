package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// Register creates a user with a hashed password and a free subscription
	Register(ctx context.Context, email, username, password string, referredBy *int64) (*User, error)

	// Authenticate verifies credentials
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Delete anonymizes a user; ledger and pool history is kept
	Delete(ctx context.Context, id int64) error

	// LinkFamilyMember attaches a member to the owner's family plan
	LinkFamilyMember(ctx context.Context, ownerID, memberID int64, canTransferTokens bool) error
}
