package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moodlync"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Ledger metrics
	ledgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Ledger entries appended, by direction and activity type",
		},
		[]string{"direction", "activity_type"},
	)

	ledgerTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_total",
			Help:      "Tokens moved through the ledger, by direction",
		},
		[]string{"direction"},
	)

	ledgerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Ledger mutations rejected, by error code",
		},
		[]string{"code"},
	)

	ledgerDivergenceTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "divergence_total",
			Help:      "Users found with balance != SUM(ledger) during reconciliation",
		},
	)

	// Transfer metrics
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "total",
			Help:      "Token transfers by type and final status",
		},
		[]string{"type", "status"},
	)

	// NFT and pool metrics
	nftTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nft",
			Name:      "transitions_total",
			Help:      "NFT state transitions by target state",
		},
		[]string{"to"},
	)

	poolTotalTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "total_tokens",
			Help:      "Tokens accumulated in the current pool round",
		},
	)

	poolRound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "distribution_round",
			Help:      "Current pool distribution round",
		},
	)

	poolPayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "payouts_total",
			Help:      "Pool payout rows by outcome",
		},
		[]string{"status"},
	)

	// Subscription metrics
	entitlementHealsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "heals_total",
			Help:      "Stale subscription flags corrected on read, by resolved entitlement",
		},
		[]string{"entitlement"},
	)

	// Job metrics
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "runs_total",
			Help:      "Background job runs by type and status",
		},
		[]string{"job_type", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Background job duration in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"job_type"},
	)

	panicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics recovered",
		},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		status := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLedgerEntry records an appended ledger row
func RecordLedgerEntry(activityType string, delta int64) {
	direction := "credit"
	amount := delta
	if delta < 0 {
		direction = "debit"
		amount = -delta
	}
	ledgerEntriesTotal.WithLabelValues(direction, activityType).Inc()
	ledgerTokensTotal.WithLabelValues(direction).Add(float64(amount))
}

// RecordLedgerRejection records a rejected ledger mutation
func RecordLedgerRejection(code string) {
	ledgerRejectionsTotal.WithLabelValues(code).Inc()
}

// RecordLedgerDivergence records a user whose balance diverged from the ledger
func RecordLedgerDivergence() {
	ledgerDivergenceTotal.Inc()
}

// RecordTransfer records a transfer outcome
func RecordTransfer(transferType, status string) {
	transfersTotal.WithLabelValues(transferType, status).Inc()
}

// RecordNftTransition records an NFT moving into a new state
func RecordNftTransition(to string) {
	nftTransitionsTotal.WithLabelValues(to).Inc()
}

// SetPoolState sets the pool gauges
func SetPoolState(totalTokens, round int64) {
	poolTotalTokens.Set(float64(totalTokens))
	poolRound.Set(float64(round))
}

// RecordPoolPayout records a payout row outcome
func RecordPoolPayout(status string) {
	poolPayoutsTotal.WithLabelValues(status).Inc()
}

// RecordEntitlementHeal records a lazily corrected subscription
func RecordEntitlementHeal(entitlement string) {
	entitlementHealsTotal.WithLabelValues(entitlement).Inc()
}

// RecordJobRun records a background job run
func RecordJobRun(jobType, status string, duration time.Duration) {
	jobRunsTotal.WithLabelValues(jobType, status).Inc()
	jobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// RecordPanic records a recovered handler panic
func RecordPanic() {
	panicsTotal.Inc()
}

// RecordRateLimited records a request rejected by the named limiter
func RecordRateLimited(limiter string) {
	rateLimitedTotal.WithLabelValues(limiter).Inc()
}
