package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moodlync/tokencore/internal/domain/pool"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/internal/testutil"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Readyz(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.DatabaseError("connection refused", nil) })

	tests := []struct {
		name       string
		db         Pinger
		initPool   bool
		wantStatus int
		wantRound  int64
	}{
		{"ready", up, true, http.StatusOK, 1},
		{"database down", down, true, http.StatusServiceUnavailable, 0},
		{"pool not initialized", up, false, http.StatusServiceUnavailable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewTestStore(t)
			pools := postgres.NewPoolRepository(store)
			if tt.initPool {
				if err := pools.Ensure(context.Background(), &pool.Pool{
					TargetTokens:              1000,
					CharityPercentage:         15,
					TopContributorsPercentage: 85,
					MaxTopContributors:        10,
				}); err != nil {
					t.Fatalf("Ensure() error = %v", err)
				}
			}

			h := NewHealthHandler(tt.db, pools, log)
			rr := httptest.NewRecorder()
			h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			env := decode(t, rr)
			if tt.wantStatus != http.StatusOK {
				if env.Success || env.Error.Code != errors.ErrCodeServiceUnavailable {
					t.Errorf("error code = %q, want %s", env.Error.Code, errors.ErrCodeServiceUnavailable)
				}
				return
			}

			var ready ReadinessResponse
			if err := json.Unmarshal(env.Data, &ready); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if ready.Status != "ready" || ready.PoolRound != tt.wantRound || ready.PoolTokens != 0 {
				t.Errorf("readiness = %+v", ready)
			}
		})
	}
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(nil, nil, logger.New(logger.Config{Level: "error", Format: "json"}))
	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Data["status"] != "ok" || body.Data["service"] != logger.ServiceName {
		t.Errorf("data = %v", body.Data)
	}
}
