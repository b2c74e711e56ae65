package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/utils"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolReader exposes the pool row the distributor works on
type PoolReader interface {
	Get(ctx context.Context) (*pool.Pool, error)
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db     Pinger
	pool   PoolReader
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, pools PoolReader, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		pool:   pools,
		logger: log,
	}
}

// ReadinessResponse reports the dependencies the token API needs
type ReadinessResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	PoolRound  int64  `json:"pool_round"`
	PoolTokens int64  `json:"pool_tokens"`
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": logger.ServiceName,
	})
}

// Readyz reports ready once the database answers and the token pool row is
// readable; a missing pool means Init has not run and burns would fail.
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Readiness: database unreachable")
		utils.WriteError(w, errors.ServiceUnavailable("Database connection failed"))
		return
	}

	p, err := h.pool.Get(ctx)
	if err != nil {
		h.logger.ErrorWithErr(err, "Readiness: token pool unavailable")
		utils.WriteError(w, errors.ServiceUnavailable("Token pool is not initialized"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, ReadinessResponse{
		Status:     "ready",
		Database:   "connected",
		PoolRound:  p.DistributionRound,
		PoolTokens: p.TotalTokens,
	})
}
