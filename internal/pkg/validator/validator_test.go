package validator

import "testing"

type transferRequest struct {
	ToUserID int64  `json:"toUserId" validate:"required,gt=0"`
	Amount   int64  `json:"amount" validate:"token_amount"`
	Type     string `json:"type" validate:"required,oneof=gift family charity"`
}

func TestValidator_TokenAmount(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		req       transferRequest
		wantField string
	}{
		{
			name: "valid request",
			req:  transferRequest{ToUserID: 2, Amount: 150, Type: "gift"},
		},
		{
			name:      "zero amount",
			req:       transferRequest{ToUserID: 2, Amount: 0, Type: "gift"},
			wantField: "amount",
		},
		{
			name:      "negative amount",
			req:       transferRequest{ToUserID: 2, Amount: -5, Type: "gift"},
			wantField: "amount",
		},
		{
			name:      "amount above cap",
			req:       transferRequest{ToUserID: 2, Amount: MaxTokenAmount + 1, Type: "gift"},
			wantField: "amount",
		},
		{
			name:      "unknown type",
			req:       transferRequest{ToUserID: 2, Amount: 10, Type: "bribe"},
			wantField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() errors = %v, want none", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Validate() field = %s, want %s", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidator_Username(t *testing.T) {
	v := New()

	type register struct {
		Username string `json:"username" validate:"omitempty,username"`
	}

	tests := []struct {
		username string
		valid    bool
	}{
		{"", true},
		{"mood_fan42", true},
		{"ab", false},
		{"has space", false},
		{"émotion", false},
		{"a23456789012345678901234567890123456789012345678901", false},
	}

	for _, tt := range tests {
		errs := v.Validate(register{Username: tt.username})
		if got := len(errs) == 0; got != tt.valid {
			t.Errorf("username %q valid = %v, want %v (%v)", tt.username, got, tt.valid, errs)
		}
	}
}
