package services

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/transfer"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

// TransferService implements transfer.Service
type TransferService struct {
	repo           transfer.Repository
	users          user.Repository
	ledger         ledger.Service
	tx             Transactor
	policies       map[transfer.Type]transfer.Policy
	pendingTimeout time.Duration
	logger         *logger.Logger
	now            Clock
}

// NewTransferService creates a new transfer service. A type without a policy
// needs no authorization beyond the common checks.
func NewTransferService(
	repo transfer.Repository,
	users user.Repository,
	ledgerService ledger.Service,
	tx Transactor,
	policies map[transfer.Type]transfer.Policy,
	pendingTimeout time.Duration,
	log *logger.Logger,
) transfer.Service {
	if policies == nil {
		policies = map[transfer.Type]transfer.Policy{}
	}
	return &TransferService{
		repo:           repo,
		users:          users,
		ledger:         ledgerService,
		tx:             tx,
		policies:       policies,
		pendingTimeout: pendingTimeout,
		logger:         log,
		now:            utcNow,
	}
}

// DefaultTransferPolicies returns the family and charity policies
func DefaultTransferPolicies(users user.Repository) map[transfer.Type]transfer.Policy {
	return map[transfer.Type]transfer.Policy{
		transfer.TypeFamily:  FamilyPolicy(users),
		transfer.TypeCharity: CharityPolicy(users),
	}
}

// FamilyPolicy allows transfers between an owner and a member of the same
// family plan whose relationship permits token transfers
func FamilyPolicy(users user.Repository) transfer.Policy {
	return transfer.PolicyFunc(func(ctx context.Context, from, to int64) (bool, error) {
		for _, pair := range [][2]int64{{from, to}, {to, from}} {
			rel, err := users.GetFamilyRelationship(ctx, pair[0], pair[1])
			if err != nil {
				if errors.HasCode(err, errors.ErrCodeNotFound) {
					continue
				}
				return false, err
			}
			if rel.CanTransferTokens {
				return true, nil
			}
		}
		return false, nil
	})
}

// CharityPolicy allows transfers to charity accounts only
func CharityPolicy(users user.Repository) transfer.Policy {
	return transfer.PolicyFunc(func(ctx context.Context, _, to int64) (bool, error) {
		u, err := users.GetByID(ctx, to)
		if err != nil {
			return false, err
		}
		return u.Role == user.RoleCharity, nil
	})
}

// Transfer moves amount from one user to another.
//
// A sender short of tokens gets a failed row and InsufficientTokens. Otherwise
// the row is committed as pending, then the debit, the credit and the
// completion run in one transaction. If that transaction fails the row is
// marked failed with the reason.
func (s *TransferService) Transfer(ctx context.Context, fromUserID, toUserID, amount int64, transferType transfer.Type) (*transfer.Transfer, error) {
	if fromUserID == toUserID {
		return nil, errors.BadRequest("Cannot transfer tokens to yourself")
	}
	if amount <= 0 {
		return nil, errors.BadRequest("Transfer amount must be positive")
	}
	if !transferType.IsValid() {
		return nil, errors.BadRequest(fmt.Sprintf("Invalid transfer type %q", transferType))
	}

	sender, err := s.users.GetByID(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if sender.IsDeleted() {
		return nil, errors.NotFound("User")
	}
	recipient, err := s.users.GetByID(ctx, toUserID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, errors.NotFound("Recipient")
		}
		return nil, err
	}
	if recipient.IsDeleted() {
		return nil, errors.NotFound("Recipient")
	}

	if policy, ok := s.policies[transferType]; ok {
		allowed, err := policy.CanTransfer(ctx, fromUserID, toUserID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			metrics.RecordTransfer(string(transferType), "forbidden")
			return nil, errors.Forbidden(fmt.Sprintf("%s transfer not permitted between these users", transferType))
		}
	}

	balance, err := s.ledger.Balance(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if balance.Frozen {
		return nil, errors.LedgerFrozen(fromUserID)
	}

	t := &transfer.Transfer{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
		Type:       transferType,
		Status:     transfer.StatusPending,
		CreatedAt:  s.now(),
	}

	if balance.Balance < amount {
		reason := "insufficient tokens"
		t.Status = transfer.StatusFailed
		t.FailureReason = &reason
		if err := s.repo.Create(ctx, t); err != nil {
			return nil, err
		}
		metrics.RecordTransfer(string(transferType), string(transfer.StatusFailed))
		return nil, errors.InsufficientTokens(balance.Balance, amount).
			WithDetails(map[string]interface{}{
				"balance":     balance.Balance,
				"requested":   amount,
				"transfer_id": t.ID,
			})
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Lock(ctx, fromUserID, toUserID); err != nil {
			return err
		}
		if _, err := s.ledger.Debit(ctx, fromUserID, ledger.ActivityTransferOut, amount,
			fmt.Sprintf("Transfer %s to user %d", t.Reference, toUserID)); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, toUserID, ledger.ActivityTransferIn, amount,
			fmt.Sprintf("Transfer %s from user %d", t.Reference, fromUserID)); err != nil {
			return err
		}
		changed, err := s.repo.Transition(ctx, t.ID, transfer.StatusPending, transfer.StatusCompleted, nil)
		if err != nil {
			return err
		}
		if !changed {
			return errors.Conflict("Transfer is no longer pending")
		}
		return nil
	})
	if err != nil {
		s.fail(ctx, t, err.Error())
		return nil, err
	}

	t.Status = transfer.StatusCompleted
	t.UpdatedAt = s.now()
	metrics.RecordTransfer(string(transferType), string(transfer.StatusCompleted))

	s.logger.WithFields(map[string]interface{}{
		"transfer_id": t.ID,
		"reference":   t.Reference,
		"from":        fromUserID,
		"to":          toUserID,
		"amount":      amount,
		"type":        transferType,
	}).Info("Tokens transferred")

	return t, nil
}

// fail moves a pending transfer to failed; a row already settled is left alone
func (s *TransferService) fail(ctx context.Context, t *transfer.Transfer, reason string) {
	changed, err := s.repo.Transition(ctx, t.ID, transfer.StatusPending, transfer.StatusFailed, &reason)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"transfer_id": t.ID,
		}).ErrorWithErr(err, "Failed to mark transfer failed")
		return
	}
	if changed {
		t.Status = transfer.StatusFailed
		t.FailureReason = &reason
		metrics.RecordTransfer(string(t.Type), string(transfer.StatusFailed))
	}
}

// Get returns a transfer the user sent or received
func (s *TransferService) Get(ctx context.Context, id, userID int64) (*transfer.Transfer, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.FromUserID != userID && t.ToUserID != userID {
		return nil, errors.NotFound("Transfer")
	}
	return t, nil
}

// List lists a user's transfers
func (s *TransferService) List(ctx context.Context, userID int64, filter transfer.Filter, limit, offset int) ([]*transfer.Transfer, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, errors.BadRequest(fmt.Sprintf("Invalid transfer status %q", filter.Status))
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, 0, errors.BadRequest(fmt.Sprintf("Invalid transfer type %q", filter.Type))
	}
	return s.repo.ListByUser(ctx, userID, filter, limit, offset)
}

// Cancel cancels a pending transfer sent by userID
func (s *TransferService) Cancel(ctx context.Context, id, userID int64) (*transfer.Transfer, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.FromUserID != userID {
		return nil, errors.NotFound("Transfer")
	}
	if !t.Status.CanTransition(transfer.StatusCanceled) {
		return nil, errors.Conflict(fmt.Sprintf("Transfer is %s and cannot be canceled", t.Status))
	}

	reason := "canceled by sender"
	changed, err := s.repo.Transition(ctx, id, transfer.StatusPending, transfer.StatusCanceled, &reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, errors.Conflict("Transfer is no longer pending")
	}

	metrics.RecordTransfer(string(t.Type), string(transfer.StatusCanceled))
	s.logger.WithFields(map[string]interface{}{
		"transfer_id": id,
		"user_id":     userID,
	}).Info("Transfer canceled")

	return s.repo.GetByID(ctx, id)
}

// SweepPending fails pending transfers older than the timeout
func (s *TransferService) SweepPending(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.repo.ListPendingBefore(ctx, now.Add(-s.pendingTimeout))
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, t := range stale {
		reason := fmt.Sprintf("pending longer than %s", s.pendingTimeout)
		changed, err := s.repo.Transition(ctx, t.ID, transfer.StatusPending, transfer.StatusFailed, &reason)
		if err != nil {
			return swept, err
		}
		if changed {
			swept++
			metrics.RecordTransfer(string(t.Type), string(transfer.StatusFailed))
		}
	}

	if swept > 0 {
		s.logger.WithFields(map[string]interface{}{
			"swept": swept,
		}).Warn("Stale pending transfers failed")
	}

	return swept, nil
}
