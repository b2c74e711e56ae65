package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
)

const minPasswordLength = 8

// UserService implements user.Service
type UserService struct {
	repo           user.Repository
	subscriptions  subscription.Service
	ledger         ledger.Service
	tx             Transactor
	referralReward int64
	bcryptCost     int
	logger         *logger.Logger
}

// NewUserService creates a new user service. referralReward is credited to
// the referrer of every new user; zero disables it.
func NewUserService(
	repo user.Repository,
	subscriptions subscription.Service,
	ledgerService ledger.Service,
	tx Transactor,
	referralReward int64,
	log *logger.Logger,
) user.Service {
	return &UserService{
		repo:           repo,
		subscriptions:  subscriptions,
		ledger:         ledgerService,
		tx:             tx,
		referralReward: referralReward,
		bcryptCost:     bcrypt.DefaultCost,
		logger:         log,
	}
}

// SetBCryptCost overrides the password hashing cost. Out-of-range costs are
// ignored.
func (s *UserService) SetBCryptCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.bcryptCost = cost
	}
}

// Register creates a user with a free subscription and credits the referrer
func (s *UserService) Register(ctx context.Context, email, username, password string, referredBy *int64) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.BadRequest("A valid email is required")
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if len(password) < minPasswordLength {
		return nil, errors.BadRequest("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &user.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if referredBy != nil {
			referrer, err := s.repo.GetByID(ctx, *referredBy)
			if err != nil {
				if errors.HasCode(err, errors.ErrCodeNotFound) {
					return errors.BadRequest("Unknown referrer")
				}
				return err
			}
			if referrer.IsDeleted() {
				return errors.BadRequest("Unknown referrer")
			}
			u.ReferredBy = referredBy
		}

		if err := s.repo.Create(ctx, u); err != nil {
			return err
		}
		if _, err := s.subscriptions.EnsureForUser(ctx, u.ID); err != nil {
			return err
		}

		if u.ReferredBy != nil && s.referralReward > 0 {
			if _, err := s.ledger.Credit(ctx, *u.ReferredBy, ledger.ActivityReferral, s.referralReward,
				"Referral of "+u.Username); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeConflict) && !errors.HasCode(err, errors.ErrCodeBadRequest) {
			s.logger.ErrorWithErr(err, "Failed to register user")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":     u.ID,
		"referred_by": u.ReferredBy,
	}).Info("User registered")

	return u, nil
}

// Authenticate verifies credentials
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNotFound) {
			return nil, errors.Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if u.IsDeleted() {
		return nil, errors.Unauthorized("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid email or password")
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Delete anonymizes a user. Ledger rows, transfers and pool history keep
// pointing at the row.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsDeleted() {
		return errors.NotFound("User")
	}

	if err := s.repo.Anonymize(ctx, id); err != nil {
		s.logger.ErrorWithErr(err, "Failed to delete user")
		return err
	}

	s.logger.ForUser(id).Info("User anonymized")

	return nil
}

// LinkFamilyMember attaches a member to the owner's family plan. The owner
// must hold an active family subscription of their own.
func (s *UserService) LinkFamilyMember(ctx context.Context, ownerID, memberID int64, canTransferTokens bool) error {
	if ownerID == memberID {
		return errors.BadRequest("Cannot add yourself to your family plan")
	}

	status, err := s.subscriptions.GetStatus(ctx, ownerID)
	if err != nil {
		return err
	}
	if status.Entitlement != subscription.EntitlementFamilyActive || status.InheritedFrom != nil {
		return errors.Forbidden("An active family plan is required")
	}

	member, err := s.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertFamilyRelationship(ctx, &user.FamilyRelationship{
		OwnerID:           ownerID,
		MemberID:          member.ID,
		CanTransferTokens: canTransferTokens,
	}); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"owner_id":            ownerID,
		"member_id":           memberID,
		"can_transfer_tokens": canTransferTokens,
	}).Info("Family member linked")

	return nil
}
