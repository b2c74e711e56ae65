package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClient_LoginSetsToken(t *testing.T) {
	var gotAuth string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"accessToken":  "access",
					"refreshToken": "refresh",
					"user":         map[string]interface{}{"id": 3, "email": "a@example.com"},
				},
			})
		case "/api/tokens":
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"user_id": 3, "balance": 120},
			})
		default:
			http.NotFound(w, r)
		}
	})

	resp, err := c.Login(context.Background(), "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.User == nil || resp.User.ID != 3 {
		t.Errorf("user = %+v, want id 3", resp.User)
	}
	if c.GetToken() != "access" {
		t.Errorf("token = %q, want access", c.GetToken())
	}

	balance, err := c.Tokens().Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if balance.Balance != 120 {
		t.Errorf("balance = %d, want 120", balance.Balance)
	}
	if gotAuth != "Bearer access" {
		t.Errorf("Authorization = %q, want Bearer access", gotAuth)
	}
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		code         string
		insufficient bool
		frozen       bool
	}{
		{"insufficient tokens", http.StatusUnprocessableEntity, "INSUFFICIENT_TOKENS", true, false},
		{"ledger frozen", http.StatusLocked, "LEDGER_FROZEN", false, true},
		{"forbidden", http.StatusForbidden, "FORBIDDEN", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, map[string]interface{}{
					"success": false,
					"error":   map[string]interface{}{"code": tt.code, "message": "nope"},
				})
			})

			_, err := c.Tokens().Transfer(context.Background(), TransferRequest{ToUserID: 2, Amount: 10, Type: "gift"})
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Code != tt.code {
				t.Errorf("got (%d, %s), want (%d, %s)", apiErr.StatusCode, apiErr.Code, tt.status, tt.code)
			}
			if apiErr.IsInsufficientTokens() != tt.insufficient {
				t.Errorf("IsInsufficientTokens() = %v", apiErr.IsInsufficientTokens())
			}
			if apiErr.IsLedgerFrozen() != tt.frozen {
				t.Errorf("IsLedgerFrozen() = %v", apiErr.IsLedgerFrozen())
			}
		})
	}
}

func TestTokenService_ListTransfersQuery(t *testing.T) {
	var gotQuery string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"data":        []map[string]interface{}{{"id": 1, "status": "failed"}},
				"page":        2,
				"page_size":   5,
				"total_items": 6,
			},
		})
	})

	page, err := c.Tokens().ListTransfers(context.Background(), &TransferListOptions{
		ListOptions: ListOptions{Page: 2, PageSize: 5},
		Status:      "failed",
	})
	if err != nil {
		t.Fatalf("ListTransfers() error = %v", err)
	}
	if gotQuery != "page=2&page_size=5&status=failed" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(page.Data) != 1 || page.TotalItems != 6 {
		t.Errorf("page = %+v", page)
	}
}
