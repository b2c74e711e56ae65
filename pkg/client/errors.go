package client

import (
	"fmt"
	"net/http"
)

// APIError is the error envelope returned by the token API
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports a missing resource
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports a missing or expired access token
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports a role or entitlement the caller lacks
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsValidationError reports a rejected request body or query
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsRateLimited reports a 429; the server sends Retry-After with it
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsInsufficientTokens returns true if a debit or transfer exceeded the balance
func (e *APIError) IsInsufficientTokens() bool {
	return e.Code == "INSUFFICIENT_TOKENS"
}

// IsLedgerFrozen returns true if the user's ledger awaits reconciliation
func (e *APIError) IsLedgerFrozen() bool {
	return e.Code == "LEDGER_FROZEN"
}

// IsSubscriptionExpired returns true if a premium-gated call hit a lapsed plan
func (e *APIError) IsSubscriptionExpired() bool {
	return e.Code == "SUBSCRIPTION_EXPIRED"
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= http.StatusInternalServerError
}
