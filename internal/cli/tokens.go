package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moodlync/tokencore/pkg/client"
)

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your token balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := apiClient.Tokens().Balance(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(balance)
			}

			fmt.Printf("%d tokens\n", balance.Balance)
			if balance.Frozen {
				fmt.Println("Your ledger is frozen pending reconciliation; token operations are paused.")
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your token ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Tokens().History(context.Background(), &client.ListOptions{Page: page, PageSize: pageSize})
			if err != nil {
				return fmt.Errorf("failed to get history: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "ACTIVITY", "TOKENS", "BALANCE", "DESCRIPTION", "DATE")
			for _, e := range result.Data {
				t.AddRow(
					strconv.FormatInt(e.ID, 10),
					e.ActivityType,
					formatTokens(e.TokensEarned),
					strconv.FormatInt(e.BalanceAfter, 10),
					truncate(e.Description, 40),
					formatTime(&e.CreatedAt),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d entries)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "entries per page")

	return cmd
}

func newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "claim <activity>",
		Short:     "Claim the reward for an activity",
		Long:      "Claim the reward for daily_login, mood_entry, challenge_complete or video_upload.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"daily_login", "mood_entry", "challenge_complete", "video_upload"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := apiClient.Tokens().ClaimReward(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to claim reward: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(entry)
			}

			fmt.Printf("Earned %s tokens (balance %d)\n", formatTokens(entry.TokensEarned), entry.BalanceAfter)
			return nil
		},
	}
}

func newTransferCmd() *cobra.Command {
	var transferType string

	cmd := &cobra.Command{
		Use:   "transfer <to-user-id> <amount>",
		Short: "Send tokens to another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			t, err := apiClient.Tokens().Transfer(context.Background(), client.TransferRequest{
				ToUserID: to,
				Amount:   amount,
				Type:     transferType,
			})
			if err != nil {
				return fmt.Errorf("transfer failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(t)
			}

			fmt.Printf("Transfer %d (%s): %d tokens to user %d, %s\n", t.ID, t.Reference, t.Amount, t.ToUserID, formatStatus(t.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&transferType, "type", "gift", "transfer type: gift, family, charity")

	return cmd
}

func newTransfersCmd() *cobra.Command {
	var status, transferType string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "List your transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Tokens().ListTransfers(context.Background(), &client.TransferListOptions{
				ListOptions: client.ListOptions{Page: page, PageSize: pageSize},
				Status:      status,
				Type:        transferType,
			})
			if err != nil {
				return fmt.Errorf("failed to list transfers: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "FROM", "TO", "AMOUNT", "TYPE", "STATUS", "DATE")
			for _, tr := range result.Data {
				t.AddRow(
					strconv.FormatInt(tr.ID, 10),
					strconv.FormatInt(tr.FromUserID, 10),
					strconv.FormatInt(tr.ToUserID, 10),
					strconv.FormatInt(tr.Amount, 10),
					tr.Type,
					formatStatus(tr.Status),
					formatTime(&tr.CreatedAt),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&transferType, "type", "", "filter by type")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "transfers per page")

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transfer id %q", args[0])
			}
			tr, err := apiClient.Tokens().GetTransfer(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get transfer: %w", err)
			}
			if getOutputFormat() != "table" {
				return printOutput(tr)
			}
			fmt.Printf("ID:        %d\n", tr.ID)
			fmt.Printf("Reference: %s\n", tr.Reference)
			fmt.Printf("From:      user %d\n", tr.FromUserID)
			fmt.Printf("To:        user %d\n", tr.ToUserID)
			fmt.Printf("Amount:    %d\n", tr.Amount)
			fmt.Printf("Type:      %s\n", tr.Type)
			fmt.Printf("Status:    %s\n", formatStatus(tr.Status))
			if tr.FailureReason != nil {
				fmt.Printf("Reason:    %s\n", *tr.FailureReason)
			}
			fmt.Printf("Created:   %s\n", formatTime(&tr.CreatedAt))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transfer id %q", args[0])
			}
			tr, err := apiClient.Tokens().CancelTransfer(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to cancel transfer: %w", err)
			}
			if getOutputFormat() != "table" {
				return printOutput(tr)
			}
			fmt.Printf("Transfer %d %s\n", tr.ID, formatStatus(tr.Status))
			return nil
		},
	})

	return cmd
}
