package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile updates username and role
	UpdateProfile(ctx context.Context, user *User) error

	// UpdatePremiumState mirrors subscription state onto the user row
	UpdatePremiumState(ctx context.Context, userID int64, state PremiumState) error

	// Lock locks the given user rows, in id order, for the open transaction
	Lock(ctx context.Context, ids ...int64) error

	// SetLedgerFrozen freezes or unfreezes token mutations for a user
	SetLedgerFrozen(ctx context.Context, userID int64, frozen bool) error

	// Anonymize scrubs personal data and marks the user deleted
	Anonymize(ctx context.Context, id int64) error

	// List retrieves users with pagination, deleted users excluded
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// ListIDs returns the ids of every user, deleted ones included
	ListIDs(ctx context.Context) ([]int64, error)

	// GetFamilyRelationship returns the relationship between owner and member
	GetFamilyRelationship(ctx context.Context, ownerID, memberID int64) (*FamilyRelationship, error)

	// UpsertFamilyRelationship creates or updates a family relationship
	UpsertFamilyRelationship(ctx context.Context, rel *FamilyRelationship) error
}
