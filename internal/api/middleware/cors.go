package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/cors"
)

// devPorts are the local ports the web and mobile clients run on in development
var devPorts = []string{"3000", "5173", "8081"}

// CORS allows the listed origins to call the token API with the auth cookie.
// The request id and Retry-After headers are readable by clients.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// AllowedOrigins builds the origin list from the frontend URL and any extra
// configured origins. Only http(s) scheme://host entries are kept; wildcards
// never pass with credentials on. Outside production the local dev servers are
// added when the frontend is local.
func AllowedOrigins(frontendURL string, extra []string, production bool) []string {
	seen := make(map[string]bool)
	var origins []string
	add := func(raw string) {
		origin, ok := normalizeOrigin(raw)
		if !ok || seen[origin] {
			return
		}
		seen[origin] = true
		origins = append(origins, origin)
	}

	add(frontendURL)
	for _, o := range extra {
		add(o)
	}

	if !production && isLocalOrigin(frontendURL) {
		for _, port := range devPorts {
			add("http://localhost:" + port)
			add("http://127.0.0.1:" + port)
		}
	}
	return origins
}

func normalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return u.Scheme + "://" + strings.ToLower(u.Host), true
}

func isLocalOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
