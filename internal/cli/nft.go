package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moodlync/tokencore/pkg/client"
)

func newNftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nft",
		Aliases: []string{"nfts"},
		Short:   "Manage emotional NFTs",
	}

	cmd.AddCommand(newNftListCmd())
	cmd.AddCommand(newNftCreateCmd())
	cmd.AddCommand(newNftTransitionCmd("mint", "Mint an NFT (charges its token cost)"))
	cmd.AddCommand(newNftTransitionCmd("evolve", "Raise the evolution level of a minted NFT"))
	cmd.AddCommand(newNftBurnCmd())

	return cmd
}

func newNftListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your NFTs",
		RunE: func(cmd *cobra.Command, args []string) error {
			nfts, err := apiClient.Nfts().List(context.Background(), status)
			if err != nil {
				return fmt.Errorf("failed to list NFTs: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(nfts)
			}

			if len(nfts) == 0 {
				fmt.Println("No NFTs found.")
				return nil
			}

			t := NewTable("ID", "EMOTION", "RARITY", "LEVEL", "STATUS", "COST", "CREATED")
			for _, n := range nfts {
				t.AddRow(
					strconv.FormatInt(n.ID, 10),
					truncate(n.Emotion, 24),
					n.Rarity,
					strconv.Itoa(n.EvolutionLevel),
					formatStatus(n.MintStatus),
					strconv.FormatInt(n.TokensCost, 10),
					formatTime(&n.CreatedAt),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status: unminted, minted, burned")

	return cmd
}

func newNftCreateCmd() *cobra.Command {
	var rarity string

	cmd := &cobra.Command{
		Use:   "create <emotion>",
		Short: "Create an unminted NFT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := apiClient.Nfts().Create(context.Background(), args[0], rarity)
			if err != nil {
				return fmt.Errorf("failed to create NFT: %w", err)
			}
			return printNft(n)
		},
	}

	cmd.Flags().StringVar(&rarity, "rarity", "common", "rarity: common, rare, epic, legendary")

	return cmd
}

// newNftTransitionCmd builds the mint and evolve commands, which share a shape
func newNftTransitionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var n *client.Nft
			switch action {
			case "mint":
				n, err = apiClient.Nfts().Mint(context.Background(), id)
			default:
				n, err = apiClient.Nfts().Evolve(context.Background(), id)
			}
			if err != nil {
				return fmt.Errorf("failed to %s NFT: %w", action, err)
			}
			return printNft(n)
		},
	}
}

func newNftBurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "burn <id>",
		Short: "Burn a minted NFT into the shared pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			result, err := apiClient.Nfts().Burn(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to burn NFT: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			fmt.Printf("Burned NFT %d: %d tokens added to round %d (pool total %d)\n",
				result.Nft.ID, result.Nft.TokensCost, result.PoolRound, result.PoolTotalTokens)
			return nil
		},
	}
}

func printNft(n *client.Nft) error {
	if getOutputFormat() != "table" {
		return printOutput(n)
	}

	fmt.Printf("ID:        %d\n", n.ID)
	fmt.Printf("Emotion:   %s\n", n.Emotion)
	fmt.Printf("Rarity:    %s\n", n.Rarity)
	fmt.Printf("Level:     %d\n", n.EvolutionLevel)
	fmt.Printf("Status:    %s\n", formatStatus(n.MintStatus))
	fmt.Printf("Cost:      %d tokens\n", n.TokensCost)
	if n.MintedAt != nil {
		fmt.Printf("Minted:    %s\n", formatTime(n.MintedAt))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
