package transfer

import (
	"context"
	"time"
)

// Type of a token transfer
type Type string

const (
	TypeGift    Type = "gift"
	TypeFamily  Type = "family"
	TypeCharity Type = "charity"
)

// IsValid checks if the type is valid
func (t Type) IsValid() bool {
	return t == TypeGift || t == TypeFamily || t == TypeCharity
}

// Status of a token transfer
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether the status is final
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// CanTransition allows only pending -> completed|failed|canceled
func (s Status) CanTransition(to Status) bool {
	return s == StatusPending && to.IsTerminal()
}

// Transfer moves tokens from one user to another
type Transfer struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	FromUserID    int64     `json:"from_user_id"`
	ToUserID      int64     `json:"to_user_id"`
	Amount        int64     `json:"amount"`
	Type          Type      `json:"type"`
	Status        Status    `json:"status"`
	FailureReason *string   `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Policy authorizes transfers of one type between two users
type Policy interface {
	CanTransfer(ctx context.Context, fromUserID, toUserID int64) (bool, error)
}

// PolicyFunc adapts a function to Policy
type PolicyFunc func(ctx context.Context, fromUserID, toUserID int64) (bool, error)

// CanTransfer calls f
func (f PolicyFunc) CanTransfer(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	return f(ctx, fromUserID, toUserID)
}

// Filter narrows transfer listings
type Filter struct {
	Status Status
	Type   Type
}
