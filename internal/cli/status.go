package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and, when logged in, your token summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			loggedIn := apiClient.GetToken() != ""

			summary := map[string]interface{}{}
			if ready, err := apiClient.Ready(ctx); err != nil {
				summary["server"] = fmt.Sprintf("error: %v", err)
			} else {
				summary["server"] = ready.Status
			}

			if loggedIn {
				if balance, err := apiClient.Tokens().Balance(ctx); err == nil {
					summary["balance"] = balance.Balance
					summary["frozen"] = balance.Frozen
				}
				if sub, err := apiClient.Subscription().Get(ctx); err == nil {
					summary["entitlement"] = sub.Entitlement
					summary["days_remaining"] = sub.DaysRemaining
				}
				if p, err := apiClient.Pool().Get(ctx); err == nil {
					summary["pool_total"] = p.TotalTokens
					summary["pool_target"] = p.TargetTokens
					summary["pool_round"] = p.DistributionRound
				}
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			fmt.Println("MoodLync Status")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Server:        %v\n", summary["server"])
			if !loggedIn {
				fmt.Println("  (not logged in; run 'moodlync login')")
				return nil
			}
			if v, ok := summary["balance"]; ok {
				fmt.Printf("  Balance:       %v tokens", v)
				if summary["frozen"] == true {
					fmt.Print(" (frozen)")
				}
				fmt.Println()
			}
			if v, ok := summary["entitlement"]; ok {
				fmt.Printf("  Subscription:  %s (%v days left)\n", formatStatus(fmt.Sprint(v)), summary["days_remaining"])
			}
			if v, ok := summary["pool_total"]; ok {
				fmt.Printf("  Pool:          %v / %v tokens (round %v)\n", v, summary["pool_target"], summary["pool_round"])
			}
			return nil
		},
	}
}
