package nft

import (
	"testing"
	"time"

	"github.com/moodlync/tokencore/internal/pkg/errors"
)

func TestMintStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to MintStatus
		want     bool
	}{
		{StatusUnminted, StatusMinted, true},
		{StatusUnminted, StatusBurned, false},
		{StatusMinted, StatusBurned, true},
		{StatusMinted, StatusUnminted, false},
		{StatusBurned, StatusMinted, false},
		{StatusBurned, StatusBurned, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmotionalNft_Lifecycle(t *testing.T) {
	now := time.Now()
	n := &EmotionalNft{ID: 7, UserID: 1, MintStatus: StatusUnminted, EvolutionLevel: 1, TokensCost: 350}

	if err := n.Burn(1, now); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Fatalf("Burn() on unminted error = %v, want INVALID_NFT_STATE", err)
	}
	if err := n.Mint(2, now); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Fatalf("Mint() by non-owner error = %v, want INVALID_NFT_STATE", err)
	}
	if err := n.Mint(1, now); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if n.MintedAt == nil {
		t.Error("Mint() should set MintedAt")
	}
	if err := n.Evolve(1, 2, now); err != nil {
		t.Fatalf("Evolve() error = %v", err)
	}
	if err := n.Evolve(1, 2, now); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Fatalf("Evolve() past cap error = %v, want CONFLICT", err)
	}
	if n.EvolutionLevel != 2 {
		t.Errorf("EvolutionLevel = %d, want 2", n.EvolutionLevel)
	}
	if err := n.Burn(2, now); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Fatalf("Burn() by non-owner error = %v, want INVALID_NFT_STATE", err)
	}
	if err := n.Burn(1, now); err != nil {
		t.Fatalf("Burn() error = %v", err)
	}
	if !n.MintStatus.IsTerminal() || n.BurnedAt == nil {
		t.Error("Burn() should leave the NFT burned with BurnedAt set")
	}
	if err := n.Burn(1, now); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Fatalf("second Burn() error = %v, want INVALID_NFT_STATE", err)
	}
	if err := n.Evolve(1, 10, now); !errors.HasCode(err, errors.ErrCodeInvalidNftState) {
		t.Fatalf("Evolve() on burned error = %v, want INVALID_NFT_STATE", err)
	}
}
