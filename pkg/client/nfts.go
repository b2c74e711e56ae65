package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// NftService handles emotional NFT calls
type NftService struct {
	client *Client
}

// List lists the caller's NFTs; status may be empty
func (s *NftService) List(ctx context.Context, status string) ([]Nft, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}

	var nfts []Nft
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/api/nfts", query), nil, &nfts); err != nil {
		return nil, err
	}
	return nfts, nil
}

// Create creates an unminted NFT; rarity may be empty
func (s *NftService) Create(ctx context.Context, emotion, rarity string) (*Nft, error) {
	req := map[string]string{"emotion": emotion}
	if rarity != "" {
		req["rarity"] = rarity
	}

	var n Nft
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/nfts", req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Mint mints an NFT, charging its token cost
func (s *NftService) Mint(ctx context.Context, id int64) (*Nft, error) {
	return s.transition(ctx, id, "mint")
}

// Evolve raises an NFT's evolution level
func (s *NftService) Evolve(ctx context.Context, id int64) (*Nft, error) {
	return s.transition(ctx, id, "evolve")
}

// Burn burns a minted NFT into the pool
func (s *NftService) Burn(ctx context.Context, id int64) (*BurnResult, error) {
	var result BurnResult
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/nfts/%d/burn", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *NftService) transition(ctx context.Context, id int64, action string) (*Nft, error) {
	var n Nft
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/nfts/%d/%s", id, action), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
