package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/moodlync/tokencore/docs"
	"github.com/moodlync/tokencore/internal/api/handlers"
	"github.com/moodlync/tokencore/internal/api/middleware"
	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/user"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/metrics"
)

// Mutating token endpoints get a tighter per-user budget than the global limit
const (
	mutationRPS   = 5
	mutationBurst = 10
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Tokens       *handlers.TokenHandler
	Subscription *handlers.SubscriptionHandler
	Gamification *handlers.GamificationHandler
	Nft          *handlers.NftHandler
	Pool         *handlers.PoolHandler
	Admin        *handlers.AdminHandler
	Job          *handlers.JobHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(middleware.CORS(middleware.AllowedOrigins(cfg.Server.FrontendURL, cfg.Server.CORSOrigins, cfg.IsProduction())))
	r.Use(middleware.RateLimit(float64(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		// Health checks
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		r.Post("/api/auth/register", h.Auth.Register)
		r.Post("/api/auth/login", h.Auth.Login)
		r.Post("/api/auth/refresh", h.Auth.RefreshToken)
		r.Post("/api/auth/logout", h.Auth.Logout)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		r.Get("/api/auth/me", h.Auth.Me)
		r.With(middleware.UserRateLimit(mutationRPS, mutationBurst)).Delete("/api/auth/me", h.Auth.DeleteMe)
		r.Post("/api/family/members", h.Auth.AddFamilyMember)

		// Tokens
		r.Route("/api/tokens", func(r chi.Router) {
			r.Get("/", h.Tokens.Balance)
			r.Get("/history", h.Tokens.History)
			r.Get("/transfers", h.Tokens.ListTransfers)
			r.Get("/transfers/{id}", h.Tokens.GetTransfer)

			r.Group(func(r chi.Router) {
				r.Use(middleware.UserRateLimit(mutationRPS, mutationBurst))
				r.Post("/transfer", h.Tokens.Transfer)
				r.Post("/transfers/{id}/cancel", h.Tokens.CancelTransfer)
			})
		})

		// Subscription
		r.Route("/api/subscription", func(r chi.Router) {
			r.Get("/", h.Subscription.Get)
			r.Post("/trial", h.Subscription.StartTrial)
			r.Post("/premium", h.Subscription.Subscribe)
			r.Post("/cancel", h.Subscription.Cancel)
		})

		// Gamification
		r.Route("/api/gamification", func(r chi.Router) {
			r.Get("/activities", h.Gamification.ListActivities)
			r.With(middleware.UserRateLimit(mutationRPS, mutationBurst)).Post("/activities", h.Gamification.Claim)
		})

		// NFTs
		r.Route("/api/nfts", func(r chi.Router) {
			r.Get("/", h.Nft.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.UserRateLimit(mutationRPS, mutationBurst))
				r.Post("/", h.Nft.Create)
				r.Post("/{id}/mint", h.Nft.Mint)
				r.Post("/{id}/evolve", h.Nft.Evolve)
				r.Post("/{id}/burn", h.Nft.Burn)
			})
		})

		// Pool
		r.Route("/api/pool", func(r chi.Router) {
			r.Get("/", h.Pool.Get)
			r.Get("/contributors", h.Pool.Contributors)
			r.Get("/distributions", h.Pool.Distributions)
		})

		// Admin
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(user.RoleAdmin))

			r.Post("/pool/distribute", h.Pool.Distribute)
			r.Put("/pool", h.Pool.UpdateSettings)
			r.Post("/tokens/credit", h.Admin.CreditTokens)
			r.Post("/ledger/reconcile", h.Admin.Reconcile)
			r.Post("/ledger/{userId}/unfreeze", h.Admin.Unfreeze)
			r.Get("/jobs", h.Job.ListExecutions)
			r.Post("/jobs/{type}/run", h.Job.RunJob)
		})
	})

	return r
}
