package transfer

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusCompleted, StatusFailed, StatusCanceled}

	for _, from := range all {
		for _, to := range all {
			want := from == StatusPending && to != StatusPending
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s.CanTransition(%s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestType_IsValid(t *testing.T) {
	for _, tt := range []struct {
		typ  Type
		want bool
	}{
		{TypeGift, true},
		{TypeFamily, true},
		{TypeCharity, true},
		{Type("loan"), false},
	} {
		if got := tt.typ.IsValid(); got != tt.want {
			t.Errorf("Type(%q).IsValid() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
