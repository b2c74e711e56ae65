package auth

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestMintAndParse(t *testing.T) {
	pair, err := MintTokens(42, "a@example.com", "admin", testSecret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		secret  string
		kind    string
		wantErr bool
	}{
		{"access token as access", pair.AccessToken, testSecret, TokenAccess, false},
		{"refresh token as refresh", pair.RefreshToken, testSecret, TokenRefresh, false},
		{"refresh token as access", pair.RefreshToken, testSecret, TokenAccess, true},
		{"access token as refresh", pair.AccessToken, testSecret, TokenRefresh, true},
		{"wrong secret", pair.AccessToken, "other", TokenAccess, true},
		{"garbage", "not.a.token", testSecret, TokenAccess, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClaims(tt.token, tt.secret, tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClaims() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (c.UserID != 42 || c.Email != "a@example.com" || c.Role != "admin") {
				t.Errorf("ParseClaims() = %+v", c)
			}
		})
	}
}

func TestParseExpired(t *testing.T) {
	pair, err := MintTokens(1, "b@example.com", "user", testSecret, -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}
	if _, err := ParseClaims(pair.AccessToken, testSecret, TokenAccess); err == nil {
		t.Error("ParseClaims() accepted an expired token")
	}
}
