package services

import (
	"context"
	"testing"

	"github.com/moodlync/tokencore/internal/domain/nft"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/errors"
)

func TestNftService_Lifecycle(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	e.nfts.SetPoolNotifier(notifier)

	u := e.newUser(user.RoleUser, 1000)
	e.premium(u)

	n, err := e.nfts.Create(ctx, u, "  calm ", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if n.Emotion != "calm" || n.Rarity != nft.RarityCommon || n.MintStatus != nft.StatusUnminted {
		t.Errorf("Create() = %+v", n)
	}
	if n.TokensCost != 350 {
		t.Errorf("TokensCost = %d, want 350", n.TokensCost)
	}

	minted, err := e.nfts.Mint(ctx, n.ID, u)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if minted.MintStatus != nft.StatusMinted || minted.MintedAt == nil {
		t.Errorf("Mint() = %+v, want minted", minted)
	}
	if got := e.balance(u); got != 650 {
		t.Errorf("balance after mint = %d, want 650", got)
	}

	evolved, err := e.nfts.Evolve(ctx, n.ID, u)
	if err != nil {
		t.Fatalf("Evolve() error = %v", err)
	}
	if evolved.EvolutionLevel != 2 {
		t.Errorf("EvolutionLevel = %d, want 2", evolved.EvolutionLevel)
	}

	res, err := e.nfts.Burn(ctx, n.ID, u)
	if err != nil {
		t.Fatalf("Burn() error = %v", err)
	}
	if res.Nft.MintStatus != nft.StatusBurned {
		t.Errorf("status = %s, want burned", res.Nft.MintStatus)
	}
	if res.PoolRound != 1 || res.PoolTotalTokens != 350 {
		t.Errorf("BurnResult = round %d total %d, want round 1 total 350", res.PoolRound, res.PoolTotalTokens)
	}
	if len(notifier.states) != 1 || notifier.states[0].TotalTokens != 350 {
		t.Errorf("notifier states = %+v, want one state with 350 tokens", notifier.states)
	}

	if _, err := e.nfts.Burn(ctx, n.ID, u); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Errorf("second Burn() error = %v, want %s", err, errors.ErrCodeInvalidNftState)
	}
	if _, err := e.nfts.Evolve(ctx, n.ID, u); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Errorf("Evolve() on burned error = %v, want %s", err, errors.ErrCodeInvalidNftState)
	}

	p, err := e.pool.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.TotalTokens != 350 {
		t.Errorf("pool total = %d, want 350", p.TotalTokens)
	}
	e.assertConsistent()
}

func TestNftService_InvalidTransitions(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()

	owner := e.newUser(user.RoleUser, 1000)
	other := e.newUser(user.RoleUser, 1000)
	e.premium(owner)
	e.premium(other)

	n, err := e.nfts.Create(ctx, owner, "joy", nft.RarityRare)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"burn unminted", func() error {
			_, err := e.nfts.Burn(ctx, n.ID, owner)
			return err
		}, errors.ErrCodeInvalidNftState},
		{"evolve unminted", func() error {
			_, err := e.nfts.Evolve(ctx, n.ID, owner)
			return err
		}, errors.ErrCodeInvalidNftState},
		{"mint by another user", func() error {
			_, err := e.nfts.Mint(ctx, n.ID, other)
			return err
		}, errors.ErrCodeInvalidNftState},
		{"get by another user", func() error {
			_, err := e.nfts.Get(ctx, n.ID, other)
			return err
		}, errors.ErrCodeNotFound},
		{"unknown rarity", func() error {
			_, err := e.nfts.Create(ctx, owner, "joy", nft.Rarity("mythic"))
			return err
		}, errors.ErrCodeBadRequest},
		{"empty emotion", func() error {
			_, err := e.nfts.Create(ctx, owner, "  ", "")
			return err
		}, errors.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.HasCode(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}

	if got := e.balance(other); got != 1000 {
		t.Errorf("other balance = %d, want 1000", got)
	}
}

func TestNftService_MintRequiresPremium(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	u := e.newUser(user.RoleUser, 1000)

	n, err := e.nfts.Create(ctx, u, "joy", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := e.nfts.Mint(ctx, n.ID, u); !errors.HasCode(err, errors.ErrCodeForbidden) {
		t.Errorf("Mint() error = %v, want %s", err, errors.ErrCodeForbidden)
	}
}

func TestNftService_MintInsufficientTokensRollsBack(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	u := e.newUser(user.RoleUser, 100)
	e.premium(u)

	n, err := e.nfts.Create(ctx, u, "joy", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := e.nfts.Mint(ctx, n.ID, u); !errors.HasCode(err, errors.ErrCodeInsufficientTokens) {
		t.Fatalf("Mint() error = %v, want %s", err, errors.ErrCodeInsufficientTokens)
	}

	got, err := e.nfts.Get(ctx, n.ID, u)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MintStatus != nft.StatusUnminted {
		t.Errorf("status = %s, want unminted after failed mint", got.MintStatus)
	}
	if b := e.balance(u); b != 100 {
		t.Errorf("balance = %d, want 100", b)
	}
}

func TestNftService_List(t *testing.T) {
	e := newEconomy(t)
	ctx := context.Background()
	u := e.newUser(user.RoleUser, 1000)
	e.premium(u)

	first, _ := e.nfts.Create(ctx, u, "joy", "")
	if _, err := e.nfts.Create(ctx, u, "calm", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := e.nfts.Mint(ctx, first.ID, u); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	all, err := e.nfts.List(ctx, u, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(List) = %d, want 2", len(all))
	}

	minted, err := e.nfts.List(ctx, u, nft.StatusMinted)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(minted) != 1 || minted[0].ID != first.ID {
		t.Errorf("List(minted) = %+v, want only NFT %d", minted, first.ID)
	}

	if _, err := e.nfts.List(ctx, u, nft.MintStatus("lost")); !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("List(lost) error = %v, want %s", err, errors.ErrCodeBadRequest)
	}
}
