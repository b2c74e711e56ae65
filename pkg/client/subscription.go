package client

import (
	"context"
	"net/http"
)

// SubscriptionService handles plan calls
type SubscriptionService struct {
	client *Client
}

// Get returns the caller's resolved entitlement
func (s *SubscriptionService) Get(ctx context.Context) (*SubscriptionStatus, error) {
	return s.do(ctx, http.MethodGet, "/api/subscription", nil)
}

// StartTrial starts the one-time trial
func (s *SubscriptionService) StartTrial(ctx context.Context) (*SubscriptionStatus, error) {
	return s.do(ctx, http.MethodPost, "/api/subscription/trial", nil)
}

// Subscribe purchases or extends premium, family or lifetime
func (s *SubscriptionService) Subscribe(ctx context.Context, tier string, periods int) (*SubscriptionStatus, error) {
	req := map[string]interface{}{"tier": tier}
	if periods > 0 {
		req["periods"] = periods
	}
	return s.do(ctx, http.MethodPost, "/api/subscription/premium", req)
}

// Cancel stops renewal
func (s *SubscriptionService) Cancel(ctx context.Context) (*SubscriptionStatus, error) {
	return s.do(ctx, http.MethodPost, "/api/subscription/cancel", nil)
}

func (s *SubscriptionService) do(ctx context.Context, method, path string, body interface{}) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := s.client.doRequest(ctx, method, path, body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
