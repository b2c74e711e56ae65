package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moodlync/tokencore/pkg/client"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect the shared token pool",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current pool round",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Pool().Get(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get pool: %w", err)
			}
			return printPool(p)
		},
	})
	cmd.AddCommand(newPoolContributorsCmd())
	cmd.AddCommand(newPoolDistributionsCmd())

	return cmd
}

func newPoolContributorsCmd() *cobra.Command {
	var round int64

	cmd := &cobra.Command{
		Use:   "contributors",
		Short: "Rank the contributors of a round",
		RunE: func(cmd *cobra.Command, args []string) error {
			contributors, err := apiClient.Pool().Contributors(context.Background(), round)
			if err != nil {
				return fmt.Errorf("failed to list contributors: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(contributors)
			}

			t := NewTable("RANK", "USER", "TOKENS", "FIRST CONTRIBUTION")
			for _, c := range contributors {
				t.AddRow(
					strconv.Itoa(c.Rank),
					strconv.FormatInt(c.UserID, 10),
					strconv.FormatInt(c.Total, 10),
					formatTime(&c.FirstContributedAt),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().Int64Var(&round, "round", 0, "pool round (default current)")

	return cmd
}

func newPoolDistributionsCmd() *cobra.Command {
	var round int64

	cmd := &cobra.Command{
		Use:   "distributions",
		Short: "List the payouts of a closed round",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := apiClient.Pool().Distributions(context.Background(), round)
			if err != nil {
				return fmt.Errorf("failed to list distributions: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(rows)
			}
			printDistributions(rows)
			return nil
		},
	}

	cmd.Flags().Int64Var(&round, "round", 0, "pool round (default last closed)")

	return cmd
}

func printPool(p *client.Pool) error {
	if getOutputFormat() != "table" {
		return printOutput(p)
	}

	fmt.Printf("Round:             %d\n", p.DistributionRound)
	fmt.Printf("Tokens:            %d / %d\n", p.TotalTokens, p.TargetTokens)
	fmt.Printf("Next distribution: %s\n", formatTime(p.NextDistributionDate))
	fmt.Printf("Split:             %d%% top contributors (max %d), %d%% charity\n",
		p.TopContributorsPercentage, p.MaxTopContributors, p.CharityPercentage)
	if p.LastDistributedAt != nil {
		fmt.Printf("Last distributed:  %s\n", formatTime(p.LastDistributedAt))
	}
	return nil
}

func printDistributions(rows []client.Distribution) {
	t := NewTable("ID", "ROUND", "RECIPIENT", "RANK", "TOKENS", "STATUS")
	for _, d := range rows {
		recipient := "-"
		switch {
		case d.IsCharity && d.CharityName != nil:
			recipient = *d.CharityName
		case d.UserID != nil:
			recipient = "user " + strconv.FormatInt(*d.UserID, 10)
		}
		rank := "-"
		if d.Rank != nil {
			rank = strconv.Itoa(*d.Rank)
		}
		t.AddRow(
			strconv.FormatInt(d.ID, 10),
			strconv.FormatInt(d.PoolRound, 10),
			truncate(recipient, 30),
			rank,
			strconv.FormatInt(d.TokenAmount, 10),
			formatStatus(d.Status),
		)
	}
	t.Render()
}
