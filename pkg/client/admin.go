package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AdminService handles administrative calls
type AdminService struct {
	client *Client
}

// Distribute runs a distribution check; force closes the round regardless
// of triggers
func (s *AdminService) Distribute(ctx context.Context, force bool) (*DistributionResult, error) {
	var result DistributionResult
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/admin/pool/distribute", map[string]bool{"force": force}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePoolSettings changes the pool parameters
func (s *AdminService) UpdatePoolSettings(ctx context.Context, settings PoolSettings) (*Pool, error) {
	var p Pool
	if err := s.client.doRequest(ctx, http.MethodPut, "/api/admin/pool", settings, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AdjustTokens credits (amount > 0) or debits (amount < 0) a user
func (s *AdminService) AdjustTokens(ctx context.Context, userID, amount int64, description string) (*LedgerEntry, error) {
	req := map[string]interface{}{
		"user_id":     userID,
		"amount":      amount,
		"description": description,
	}

	var entry LedgerEntry
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/admin/tokens/credit", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Reconcile checks every balance against its ledger
func (s *AdminService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var report ReconcileReport
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/admin/ledger/reconcile", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Unfreeze lifts a ledger freeze
func (s *AdminService) Unfreeze(ctx context.Context, userID int64) (*Balance, error) {
	var balance Balance
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/admin/ledger/%d/unfreeze", userID), nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// ListJobs lists recorded job executions; jobType may be empty
func (s *AdminService) ListJobs(ctx context.Context, jobType string, opts *ListOptions) (*Page[JobExecution], error) {
	query := url.Values{}
	if opts != nil {
		setPaging(query, *opts)
	}
	if jobType != "" {
		query.Set("job_type", jobType)
	}

	var page Page[JobExecution]
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/api/admin/jobs", query), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RunJob runs a job immediately and returns its execution
func (s *AdminService) RunJob(ctx context.Context, jobType string) (*JobExecution, error) {
	var execution JobExecution
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/admin/jobs/"+url.PathEscape(jobType)+"/run", nil, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}
