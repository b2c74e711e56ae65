package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moodlync/tokencore/pkg/client"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations (admin role required)",
	}

	cmd.AddCommand(newAdminDistributeCmd())
	cmd.AddCommand(newAdminPoolSettingsCmd())
	cmd.AddCommand(newAdminReconcileCmd())
	cmd.AddCommand(newAdminUnfreezeCmd())
	cmd.AddCommand(newAdminCreditCmd())
	cmd.AddCommand(newAdminJobsCmd())

	return cmd
}

func newAdminDistributeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Run a pool distribution check",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Admin().Distribute(context.Background(), force)
			if err != nil {
				return fmt.Errorf("distribution failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			if result.Trigger == "" {
				fmt.Printf("No distribution due for round %d.\n", result.Round)
				return nil
			}
			fmt.Printf("Round %d closed (%s): %d tokens, %d paid, %d failed. Round %d is open.\n",
				result.Round, result.Trigger, result.Total, result.Completed, result.Failed, result.NextRound)
			if len(result.Rows) > 0 {
				rows := make([]client.Distribution, 0, len(result.Rows))
				for _, r := range result.Rows {
					rows = append(rows, *r)
				}
				fmt.Println()
				printDistributions(rows)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "close the round regardless of triggers")

	return cmd
}

func newAdminPoolSettingsCmd() *cobra.Command {
	var settings client.PoolSettings

	cmd := &cobra.Command{
		Use:   "pool-settings",
		Short: "Update the pool parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Admin().UpdatePoolSettings(context.Background(), settings)
			if err != nil {
				return fmt.Errorf("failed to update pool: %w", err)
			}
			return printPool(p)
		},
	}

	cmd.Flags().Int64Var(&settings.TargetTokens, "target", 10000, "token target that triggers a distribution")
	cmd.Flags().IntVar(&settings.CharityPercentage, "charity", 15, "charity share in percent")
	cmd.Flags().IntVar(&settings.TopContributorsPercentage, "top", 85, "top contributors share in percent")
	cmd.Flags().IntVar(&settings.MaxTopContributors, "max-top", 10, "number of rewarded contributors")

	return cmd
}

func newAdminReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check every balance against its ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := apiClient.Admin().Reconcile(context.Background())
			if err != nil {
				return fmt.Errorf("reconcile failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(report)
			}

			fmt.Printf("Checked %d users in %s, %d diverged.\n", report.Checked, report.Duration, len(report.Diverged))
			if len(report.Diverged) == 0 {
				return nil
			}

			t := NewTable("USER", "BALANCE", "LEDGER SUM", "DRIFT")
			for _, d := range report.Diverged {
				t.AddRow(
					strconv.FormatInt(d.UserID, 10),
					strconv.FormatInt(d.Balance, 10),
					strconv.FormatInt(d.LedgerSum, 10),
					formatTokens(d.Balance-d.LedgerSum),
				)
			}
			t.Render()
			fmt.Println("\nDiverged ledgers are frozen until unfrozen.")
			return nil
		},
	}
}

func newAdminUnfreezeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfreeze <user-id>",
		Short: "Restore a frozen balance from its ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			balance, err := apiClient.Admin().Unfreeze(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("unfreeze failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(balance)
			}
			fmt.Printf("User %d unfrozen with %d tokens.\n", balance.UserID, balance.Balance)
			return nil
		},
	}
}

func newAdminCreditCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "credit <user-id> <amount>",
		Short: "Adjust a user's tokens; negative amounts debit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount == 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			entry, err := apiClient.Admin().AdjustTokens(context.Background(), userID, amount, description)
			if err != nil {
				return fmt.Errorf("adjustment failed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(entry)
			}
			fmt.Printf("User %d: %s tokens, balance %d\n", entry.UserID, formatTokens(entry.TokensEarned), entry.BalanceAfter)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "Admin adjustment", "ledger description")

	return cmd
}

func newAdminJobsCmd() *cobra.Command {
	var jobType string
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List background job executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Admin().ListJobs(context.Background(), jobType, &client.ListOptions{Page: page, PageSize: pageSize})
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "TYPE", "TRIGGER", "STATUS", "STARTED", "DURATION", "SUMMARY")
			for _, e := range result.Data {
				summary := e.Summary
				if e.ErrorMessage != "" {
					summary = e.ErrorMessage
				}
				t.AddRow(
					truncate(e.ID, 8),
					e.JobType,
					e.Trigger,
					formatStatus(e.Status),
					formatTime(&e.StartedAt),
					fmt.Sprintf("%dms", e.DurationMs),
					truncate(summary, 40),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&jobType, "type", "", "filter by job type")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "executions per page")

	cmd.AddCommand(&cobra.Command{
		Use:   "run <type>",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			execution, err := apiClient.Admin().RunJob(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to run job: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(execution)
			}
			fmt.Printf("%s %s in %dms", execution.JobType, formatStatus(execution.Status), execution.DurationMs)
			if execution.Summary != "" {
				fmt.Printf(": %s", execution.Summary)
			}
			fmt.Println()
			return nil
		},
	})

	return cmd
}
