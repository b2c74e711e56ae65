package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// PoolService handles token pool calls
type PoolService struct {
	client *Client
}

// Get returns the pool state
func (s *PoolService) Get(ctx context.Context) (*Pool, error) {
	var p Pool
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/pool", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Contributors returns ranked contributors; round 0 means the current round
func (s *PoolService) Contributors(ctx context.Context, round int64) ([]Contributor, error) {
	var contributors []Contributor
	if err := s.client.doRequest(ctx, http.MethodGet, roundPath("/api/pool/contributors", round), nil, &contributors); err != nil {
		return nil, err
	}
	return contributors, nil
}

// Distributions returns payout rows; round 0 means the last closed round
func (s *PoolService) Distributions(ctx context.Context, round int64) ([]Distribution, error) {
	var rows []Distribution
	if err := s.client.doRequest(ctx, http.MethodGet, roundPath("/api/pool/distributions", round), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func roundPath(path string, round int64) string {
	query := url.Values{}
	if round > 0 {
		query.Set("round", strconv.FormatInt(round, 10))
	}
	return withQuery(path, query)
}
