package services

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

// LedgerService implements ledger.Service. Every balance change goes through
// Credit or Debit so the balance always equals the sum of the user's ledger.
type LedgerService struct {
	repo    ledger.Repository
	users   user.Repository
	tx      Transactor
	rewards map[string]int64
	logger  *logger.Logger
	now     Clock
}

// NewLedgerService creates a new ledger service. rewards maps claimable
// activity types to their token amount.
func NewLedgerService(
	repo ledger.Repository,
	users user.Repository,
	tx Transactor,
	rewards map[string]int64,
	log *logger.Logger,
) ledger.Service {
	return &LedgerService{
		repo:    repo,
		users:   users,
		tx:      tx,
		rewards: rewards,
		logger:  log,
		now:     utcNow,
	}
}

// Credit adds amount to the user's balance with a ledger row
func (s *LedgerService) Credit(ctx context.Context, userID int64, activityType ledger.ActivityType, amount int64, description string) (*ledger.RewardActivity, error) {
	if amount <= 0 {
		return nil, errors.BadRequest("Credit amount must be positive")
	}
	if !activityType.IsCredit() {
		return nil, errors.BadRequest(fmt.Sprintf("Activity %q cannot credit tokens", activityType))
	}
	return s.append(ctx, userID, activityType, amount, description)
}

// Debit removes amount from the user's balance with a negative ledger row
func (s *LedgerService) Debit(ctx context.Context, userID int64, activityType ledger.ActivityType, amount int64, reason string) (*ledger.RewardActivity, error) {
	if amount <= 0 {
		return nil, errors.BadRequest("Debit amount must be positive")
	}
	if !activityType.IsDebit() {
		return nil, errors.BadRequest(fmt.Sprintf("Activity %q cannot debit tokens", activityType))
	}
	return s.append(ctx, userID, activityType, -amount, reason)
}

func (s *LedgerService) append(ctx context.Context, userID int64, activityType ledger.ActivityType, delta int64, description string) (*ledger.RewardActivity, error) {
	entry := &ledger.RewardActivity{
		UserID:       userID,
		ActivityType: activityType,
		TokensEarned: delta,
		Description:  description,
		CreatedAt:    s.now(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		if appErr, ok := errors.As(err); ok {
			switch appErr.Code {
			case errors.ErrCodeInsufficientTokens, errors.ErrCodeLedgerFrozen:
				metrics.RecordLedgerRejection(appErr.Code)
			}
		}
		return nil, err
	}

	metrics.RecordLedgerEntry(string(activityType), delta)
	s.logger.ForUser(userID).WithFields(map[string]interface{}{
		"activity_type": activityType,
		"tokens":        delta,
		"balance_after": entry.BalanceAfter,
	}).Debug("Ledger entry appended")

	return entry, nil
}

// Reward credits the scheduled amount for a user-claimable activity. Daily
// login can be claimed once per UTC day.
func (s *LedgerService) Reward(ctx context.Context, userID int64, activityType ledger.ActivityType) (*ledger.RewardActivity, error) {
	if !activityType.IsRewardable() {
		return nil, errors.BadRequest(fmt.Sprintf("Activity %q is not claimable", activityType))
	}
	amount := s.rewards[string(activityType)]
	if amount <= 0 {
		return nil, errors.BadRequest(fmt.Sprintf("No reward configured for %q", activityType))
	}

	var entry *ledger.RewardActivity
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if activityType == ledger.ActivityDailyLogin {
			if err := s.users.Lock(ctx, userID); err != nil {
				return err
			}
			n, err := s.repo.CountSince(ctx, userID, activityType, startOfDay(s.now()))
			if err != nil {
				return err
			}
			if n > 0 {
				return errors.Conflict("Daily login reward already claimed today")
			}
		}

		var err error
		entry, err = s.Credit(ctx, userID, activityType, amount, rewardDescription(activityType))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func rewardDescription(activityType ledger.ActivityType) string {
	switch activityType {
	case ledger.ActivityDailyLogin:
		return "Daily login reward"
	case ledger.ActivityMoodEntry:
		return "Mood entry reward"
	case ledger.ActivityChallengeComplete:
		return "Challenge completed"
	case ledger.ActivityVideoUpload:
		return "Video upload reward"
	}
	return string(activityType)
}

// Balance returns the user's current balance
func (s *LedgerService) Balance(ctx context.Context, userID int64) (*ledger.Balance, error) {
	return s.repo.GetBalance(ctx, userID)
}

// History returns ledger rows, newest first
func (s *LedgerService) History(ctx context.Context, userID int64, limit, offset int) ([]*ledger.RewardActivity, int64, error) {
	return s.repo.List(ctx, userID, limit, offset)
}

// Reconcile compares the balance with SUM(ledger) under the user's row lock
// and freezes the user on divergence
func (s *LedgerService) Reconcile(ctx context.Context, userID int64) (*ledger.ReconcileResult, error) {
	var result *ledger.ReconcileResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Lock(ctx, userID); err != nil {
			return err
		}

		bal, err := s.repo.GetBalance(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := s.repo.Sum(ctx, userID)
		if err != nil {
			return err
		}

		result = &ledger.ReconcileResult{
			UserID:     userID,
			Balance:    bal.Balance,
			LedgerSum:  sum,
			Consistent: bal.Balance == sum,
			Frozen:     bal.Frozen,
		}
		if result.Consistent || bal.Frozen {
			return nil
		}

		if err := s.users.SetLedgerFrozen(ctx, userID, true); err != nil {
			return err
		}
		result.Frozen = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Consistent {
		metrics.RecordLedgerDivergence()
		s.logger.ForUser(userID).WithFields(map[string]interface{}{
			"balance":    result.Balance,
			"ledger_sum": result.LedgerSum,
			"delta":      result.Balance - result.LedgerSum,
		}).Error("Token balance diverges from ledger; user frozen")
	}

	return result, nil
}

// ReconcileAll checks every user. Candidates from the bulk query are
// re-checked one by one under lock before being frozen.
func (s *LedgerService) ReconcileAll(ctx context.Context) (*ledger.ReconcileReport, error) {
	started := s.now()
	begin := time.Now()
	checked, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.FindDivergent(ctx)
	if err != nil {
		return nil, err
	}

	report := &ledger.ReconcileReport{
		Checked:   checked,
		Diverged:  []ledger.Divergence{},
		StartedAt: started,
	}
	for _, c := range candidates {
		res, err := s.Reconcile(ctx, c.UserID)
		if err != nil {
			return nil, err
		}
		if !res.Consistent {
			report.Diverged = append(report.Diverged, ledger.Divergence{
				UserID:    res.UserID,
				Balance:   res.Balance,
				LedgerSum: res.LedgerSum,
			})
		}
	}
	report.Duration = time.Since(begin).String()

	s.logger.WithFields(map[string]interface{}{
		"checked":  report.Checked,
		"diverged": len(report.Diverged),
	}).Info("Ledger reconciliation completed")

	return report, nil
}

// Unfreeze restores the balance from the ledger, which is authoritative, and
// lifts the freeze
func (s *LedgerService) Unfreeze(ctx context.Context, userID int64) error {
	var restored *ledger.Divergence
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Lock(ctx, userID); err != nil {
			return err
		}

		bal, err := s.repo.GetBalance(ctx, userID)
		if err != nil {
			return err
		}
		if !bal.Frozen {
			return errors.Conflict("Ledger is not frozen")
		}

		sum, err := s.repo.Sum(ctx, userID)
		if err != nil {
			return err
		}
		if bal.Balance != sum {
			if err := s.repo.SetBalance(ctx, userID, sum); err != nil {
				return err
			}
			restored = &ledger.Divergence{UserID: userID, Balance: bal.Balance, LedgerSum: sum}
		}
		return s.users.SetLedgerFrozen(ctx, userID, false)
	})
	if err != nil {
		return err
	}

	fields := map[string]interface{}{"user_id": userID}
	if restored != nil {
		fields["previous_balance"] = restored.Balance
		fields["restored_balance"] = restored.LedgerSum
		fields["delta"] = restored.Delta()
	}
	s.logger.WithFields(fields).Warn("Ledger unfrozen")

	return nil
}
