package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moodlync/tokencore/pkg/client"
)

func newSubscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Manage your subscription",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show your entitlement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscription(apiClient.Subscription().Get)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "trial",
		Short: "Start the one-time free trial",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscription(apiClient.Subscription().StartTrial)
		},
	})
	cmd.AddCommand(newSubscriptionPremiumCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Stop renewal; access lasts until expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscription(apiClient.Subscription().Cancel)
		},
	})

	return cmd
}

func newSubscriptionPremiumCmd() *cobra.Command {
	var tier string
	var periods int

	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Purchase or extend a paid plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscription(func(ctx context.Context) (*client.SubscriptionStatus, error) {
				return apiClient.Subscription().Subscribe(ctx, tier, periods)
			})
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "premium", "plan: premium, family, lifetime")
	cmd.Flags().IntVar(&periods, "periods", 1, "number of billing periods")

	return cmd
}

func runSubscription(call func(ctx context.Context) (*client.SubscriptionStatus, error)) error {
	status, err := call(context.Background())
	if err != nil {
		return fmt.Errorf("subscription request failed: %w", err)
	}

	if getOutputFormat() != "table" {
		return printOutput(status)
	}

	fmt.Printf("Entitlement:    %s\n", formatStatus(status.Entitlement))
	if sub := status.Subscription; sub != nil {
		fmt.Printf("Tier:           %s\n", sub.Tier)
		fmt.Printf("Expires:        %s\n", formatTime(sub.ExpiryDate))
		if sub.CancelledAt != nil {
			fmt.Printf("Cancelled:      %s\n", formatTime(sub.CancelledAt))
		}
		fmt.Printf("Trial used:     %t\n", sub.HadTrialBefore)
	}
	fmt.Printf("Days remaining: %d\n", status.DaysRemaining)
	if status.InheritedFrom != nil {
		fmt.Printf("Family plan of: user %d\n", *status.InheritedFrom)
	}
	return nil
}
