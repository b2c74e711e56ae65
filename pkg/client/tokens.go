package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// TokenService handles balance, history and transfer calls
type TokenService struct {
	client *Client
}

// TransferRequest sends tokens to another user
type TransferRequest struct {
	ToUserID int64  `json:"to_user_id"`
	Amount   int64  `json:"amount"`
	Type     string `json:"type"` // gift, family, charity
}

// TransferListOptions narrows transfer listings
type TransferListOptions struct {
	ListOptions
	Status string
	Type   string
}

// Balance returns the caller's balance
func (s *TokenService) Balance(ctx context.Context) (*Balance, error) {
	var balance Balance
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/tokens", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// History returns the caller's ledger rows, newest first
func (s *TokenService) History(ctx context.Context, opts *ListOptions) (*Page[LedgerEntry], error) {
	query := url.Values{}
	if opts != nil {
		setPaging(query, *opts)
	}

	var page Page[LedgerEntry]
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/api/tokens/history", query), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ClaimReward claims the scheduled reward of an activity
func (s *TokenService) ClaimReward(ctx context.Context, activityType string) (*LedgerEntry, error) {
	req := map[string]string{"activity_type": activityType}

	var entry LedgerEntry
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/gamification/activities", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Transfer sends tokens
func (s *TokenService) Transfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	var t Transfer
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/tokens/transfer", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransfers lists transfers sent or received by the caller
func (s *TokenService) ListTransfers(ctx context.Context, opts *TransferListOptions) (*Page[Transfer], error) {
	query := url.Values{}
	if opts != nil {
		setPaging(query, opts.ListOptions)
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Type != "" {
			query.Set("type", opts.Type)
		}
	}

	var page Page[Transfer]
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/api/tokens/transfers", query), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTransfer retrieves one transfer
func (s *TokenService) GetTransfer(ctx context.Context, id int64) (*Transfer, error) {
	var t Transfer
	if err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/tokens/transfers/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CancelTransfer cancels a pending transfer
func (s *TokenService) CancelTransfer(ctx context.Context, id int64) (*Transfer, error) {
	var t Transfer
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/tokens/transfers/%d/cancel", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func setPaging(query url.Values, opts ListOptions) {
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
