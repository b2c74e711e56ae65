package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/moodlync/tokencore/pkg/client"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = promptInput("Email: ")
			}
			if password == "" {
				password = promptPassword("Password: ")
			}

			resp, err := apiClient.Login(context.Background(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := storeCredentials(resp); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", displayName(resp.User, email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, password, username string
	var referredBy int64

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = promptInput("Email: ")
			}
			if password == "" {
				password = promptPassword("Password: ")
				confirm := promptPassword("Confirm password: ")
				if password != confirm {
					return fmt.Errorf("passwords do not match")
				}
			}

			req := client.RegisterRequest{
				Email:    email,
				Password: password,
				Username: username,
			}
			if referredBy > 0 {
				req.ReferredBy = &referredBy
			}

			resp, err := apiClient.Register(context.Background(), req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			if err := storeCredentials(resp); err != nil {
				return err
			}

			fmt.Printf("Account created. Logged in as %s\n", displayName(resp.User, email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&username, "username", "", "username (defaults to the email local part)")
	cmd.Flags().Int64Var(&referredBy, "referred-by", 0, "user ID of the referrer")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("auth.token", "")
			viper.Set("auth.refresh_token", "")
			viper.Set("auth.email", "")

			if _, err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Println("Logged out successfully")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show current user info",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.GetCurrentUser(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(user)
			}

			fmt.Printf("ID:       %d\n", user.ID)
			fmt.Printf("Email:    %s\n", user.Email)
			fmt.Printf("Username: %s\n", user.Username)
			fmt.Printf("Role:     %s\n", user.Role)
			fmt.Printf("Tokens:   %d\n", user.EmotionTokens)
			if user.PremiumPlanType != nil {
				fmt.Printf("Plan:     %s (expires %s)\n", *user.PremiumPlanType, formatTime(user.PremiumExpiryDate))
			}
			if user.LedgerFrozen {
				fmt.Println("Ledger:   frozen pending reconciliation")
			}
			return nil
		},
	}
}

func storeCredentials(resp *client.LoginResponse) error {
	viper.Set("auth.token", resp.AccessToken)
	viper.Set("auth.refresh_token", resp.RefreshToken)
	if resp.User != nil {
		viper.Set("auth.email", resp.User.Email)
	}

	if _, err := writeConfig(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func displayName(u *client.User, fallback string) string {
	if u != nil && u.Username != "" {
		return u.Username
	}
	return fallback
}

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}
