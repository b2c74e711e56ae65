package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestAllowedOrigins(t *testing.T) {
	tests := []struct {
		name       string
		frontend   string
		extra      []string
		production bool
		want       []string
	}{
		{
			name:       "production frontend only",
			frontend:   "https://app.moodlync.com/",
			production: true,
			want:       []string{"https://app.moodlync.com"},
		},
		{
			name:       "extra origins deduplicated and normalized",
			frontend:   "https://app.moodlync.com",
			extra:      []string{"https://APP.moodlync.com", " https://admin.moodlync.com ", "*", "ftp://files.moodlync.com"},
			production: true,
			want:       []string{"https://app.moodlync.com", "https://admin.moodlync.com"},
		},
		{
			name:     "local frontend adds dev servers",
			frontend: "http://localhost:5173",
			want: []string{
				"http://localhost:5173", "http://127.0.0.1:5173",
				"http://localhost:3000", "http://127.0.0.1:3000",
				"http://localhost:8081", "http://127.0.0.1:8081",
			},
		},
		{
			name:       "no dev servers in production",
			frontend:   "http://localhost:5173",
			production: true,
			want:       []string{"http://localhost:5173"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllowedOrigins(tt.frontend, tt.extra, tt.production)
			if !sameSet(got, tt.want) {
				t.Errorf("AllowedOrigins() = %v, want %v", got, tt.want)
			}
		})
	}
}

func sameSet(a, b []string) bool {
	set := func(s []string) map[string]bool {
		m := make(map[string]bool, len(s))
		for _, v := range s {
			m[v] = true
		}
		return m
	}
	return len(a) == len(b) && reflect.DeepEqual(set(a), set(b))
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://app.moodlync.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{"https://app.moodlync.com", "https://app.moodlync.com"},
		{"https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/tokens/transfer", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if tt.wantAllow != "" && rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("credentials should be allowed for a listed origin")
			}
		})
	}
}
