package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/ledger"
	"github.com/moodlync/tokencore/internal/domain/nft"
	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/domain/subscription"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

// NftService implements nft.Service
type NftService struct {
	repo          nft.Repository
	pools         pool.Repository
	ledger        ledger.Service
	subscriptions subscription.Service
	tx            Transactor
	notifier      PoolNotifier
	tokensCost    int64
	maxLevel      int
	logger        *logger.Logger
	now           Clock
}

// NewNftService creates a new NFT service
func NewNftService(
	repo nft.Repository,
	pools pool.Repository,
	ledgerService ledger.Service,
	subscriptions subscription.Service,
	tx Transactor,
	economy config.EconomyConfig,
	log *logger.Logger,
) *NftService {
	return &NftService{
		repo:          repo,
		pools:         pools,
		ledger:        ledgerService,
		subscriptions: subscriptions,
		tx:            tx,
		tokensCost:    economy.TokensCost,
		maxLevel:      economy.MaxEvolutionLevel,
		logger:        log,
		now:           utcNow,
	}
}

// SetPoolNotifier registers the receiver of post-burn pool states
func (s *NftService) SetPoolNotifier(n PoolNotifier) {
	s.notifier = n
}

// Create creates an unminted NFT at evolution level 1
func (s *NftService) Create(ctx context.Context, userID int64, emotion string, rarity nft.Rarity) (*nft.EmotionalNft, error) {
	emotion = strings.TrimSpace(emotion)
	if emotion == "" {
		return nil, errors.BadRequest("Emotion is required")
	}
	if rarity == "" {
		rarity = nft.RarityCommon
	}
	if !rarity.IsValid() {
		return nil, errors.BadRequest(fmt.Sprintf("Invalid rarity %q", rarity))
	}

	n := &nft.EmotionalNft{
		UserID:         userID,
		Emotion:        emotion,
		Rarity:         rarity,
		EvolutionLevel: 1,
		MintStatus:     nft.StatusUnminted,
		TokensCost:     s.tokensCost,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.logger.ForUser(userID).WithFields(map[string]interface{}{
		"nft_id":  n.ID,
		"emotion": emotion,
	}).Info("NFT created")

	return n, nil
}

// Get returns an NFT owned by userID
func (s *NftService) Get(ctx context.Context, id, userID int64) (*nft.EmotionalNft, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, errors.NotFound("NFT")
	}
	return n, nil
}

// List lists a user's NFTs, optionally filtered by status
func (s *NftService) List(ctx context.Context, userID int64, status nft.MintStatus) ([]*nft.EmotionalNft, error) {
	if status != "" && !status.IsValid() {
		return nil, errors.BadRequest(fmt.Sprintf("Invalid mint status %q", status))
	}
	return s.repo.ListByUser(ctx, userID, status)
}

// Mint charges tokensCost and moves the NFT to minted. Minting requires an
// active entitlement.
func (s *NftService) Mint(ctx context.Context, id, userID int64) (*nft.EmotionalNft, error) {
	if err := s.subscriptions.RequireActive(ctx, userID); err != nil {
		return nil, err
	}

	var minted *nft.EmotionalNft
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := n.Mint(userID, s.now()); err != nil {
			return err
		}
		if _, err := s.ledger.Debit(ctx, userID, ledger.ActivityNftMint, n.TokensCost,
			fmt.Sprintf("Minted NFT #%d", n.ID)); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		minted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordNftTransition(string(nft.StatusMinted))
	s.logger.ForUser(userID).WithFields(map[string]interface{}{
		"nft_id": id,
		"cost":   minted.TokensCost,
	}).Info("NFT minted")

	return minted, nil
}

// Evolve raises the evolution level of a minted NFT
func (s *NftService) Evolve(ctx context.Context, id, userID int64) (*nft.EmotionalNft, error) {
	var evolved *nft.EmotionalNft
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := n.Evolve(userID, s.maxLevel, s.now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}
		evolved = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.ForUser(userID).WithFields(map[string]interface{}{
		"nft_id": id,
		"level":  evolved.EvolutionLevel,
	}).Info("NFT evolved")

	return evolved, nil
}

// Burn moves a minted NFT to burned and contributes its tokensCost to the
// current pool round in the same transaction
func (s *NftService) Burn(ctx context.Context, id, userID int64) (*nft.BurnResult, error) {
	var result *nft.BurnResult
	var poolState *pool.Pool

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		if err := n.Burn(userID, now); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, n); err != nil {
			return err
		}

		current, err := s.pools.Get(ctx)
		if err != nil {
			return err
		}

		c := &pool.Contribution{
			UserID:      userID,
			NftID:       n.ID,
			TokenAmount: n.TokensCost,
			PoolRound:   current.DistributionRound,
			CreatedAt:   now,
		}
		poolState, err = s.pools.AddContribution(ctx, c)
		if err != nil {
			return err
		}

		result = &nft.BurnResult{
			Nft:             n,
			ContributionID:  c.ID,
			PoolRound:       c.PoolRound,
			PoolTotalTokens: poolState.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordNftTransition(string(nft.StatusBurned))
	metrics.SetPoolState(poolState.TotalTokens, poolState.DistributionRound)
	s.logger.ForUser(userID).ForRound(result.PoolRound).WithFields(map[string]interface{}{
		"nft_id":     id,
		"pool_total": result.PoolTotalTokens,
	}).Info("NFT burned into pool")

	if s.notifier != nil {
		s.notifier.PoolChanged(poolState)
	}

	return result, nil
}
