package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/moodlync/tokencore/pkg/client"
)

// Example demonstrates basic usage of the client
func Example() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	ctx := context.Background()

	// Login
	loginResp, err := c.Login(ctx, "user@example.com", "password")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Logged in as: %s\n", loginResp.User.Email)

	balance, err := c.Tokens().Balance(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Balance: %d tokens\n", balance.Balance)
}

// ExampleTokenService_Transfer demonstrates a gift with error handling
func ExampleTokenService_Transfer() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})

	if _, err := c.Login(context.Background(), "user@example.com", "password"); err != nil {
		log.Fatal(err)
	}

	t, err := c.Tokens().Transfer(context.Background(), client.TransferRequest{
		ToUserID: 42,
		Amount:   25,
		Type:     "gift",
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.IsInsufficientTokens() {
			fmt.Println("Not enough tokens")
			return
		}
		log.Fatal(err)
	}

	fmt.Printf("Transfer %s: %s\n", t.Reference, t.Status)
}

// ExampleNftService_Burn demonstrates the mint then burn lifecycle
func ExampleNftService_Burn() {
	c := client.NewClient(client.Config{
		BaseURL: "http://localhost:8080",
	})
	ctx := context.Background()

	if _, err := c.Login(ctx, "user@example.com", "password"); err != nil {
		log.Fatal(err)
	}

	n, err := c.Nfts().Create(ctx, "joy", "rare")
	if err != nil {
		log.Fatal(err)
	}
	if _, err := c.Nfts().Mint(ctx, n.ID); err != nil {
		log.Fatal(err)
	}

	result, err := c.Nfts().Burn(ctx, n.ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Pool round %d now holds %d tokens\n", result.PoolRound, result.PoolTotalTokens)
}
