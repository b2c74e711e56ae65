package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/moodlync/tokencore/internal/api/handlers"
	"github.com/moodlync/tokencore/internal/api/router"
	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/domain/job"
	"github.com/moodlync/tokencore/internal/pkg/lock"
	"github.com/moodlync/tokencore/internal/pkg/logger"
	"github.com/moodlync/tokencore/internal/pkg/validator"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/internal/services"
	"github.com/moodlync/tokencore/internal/worker"
	"github.com/moodlync/tokencore/migrations"
)

// @title MoodLync Token Core API
// @version 1.0
// @description Entitlements, reward ledger, NFT pool and token transfers.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tokencore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPath:  cfg.Logging.OutputPath,
		Environment: cfg.Server.Environment,
	})

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	fsys, err := migrations.GetFS(cfg.Database.Driver)
	if err != nil {
		return err
	}
	applied, err := postgres.RunMigrations(ctx, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	store := postgres.NewStore(db, cfg.Database.Driver)

	// Distribution lock: Redis when several instances share the database
	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Enabled {
		client, err := lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedis(client)
		log.With("addr", cfg.Redis.Addr()).Info("Using Redis distribution lock")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(store)
	poolRepo := postgres.NewPoolRepository(store)
	ledgerRepo := postgres.NewLedgerRepository(store)
	subscriptionRepo := postgres.NewSubscriptionRepository(store)
	nftRepo := postgres.NewNftRepository(store)
	transferRepo := postgres.NewTransferRepository(store)
	jobRepo := postgres.NewJobRepository(store)

	// Services
	econ := cfg.Economy
	ledgerService := services.NewLedgerService(ledgerRepo, userRepo, store, econ.Rewards, log)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, store, econ, log)
	poolService := services.NewPoolService(poolRepo, ledgerService, store, locker, cfg.Redis.LockTTL, econ, log)
	nftService := services.NewNftService(nftRepo, poolRepo, ledgerService, subscriptionService, store, econ, log)
	transferService := services.NewTransferService(transferRepo, userRepo, ledgerService, store,
		services.DefaultTransferPolicies(userRepo), econ.PendingTimeout, log)
	userService := services.NewUserService(userRepo, subscriptionService, ledgerService, store, econ.Rewards["referral"], log)
	userService.(*services.UserService).SetBCryptCost(cfg.Auth.BCryptCost)

	if err := poolService.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize pool: %w", err)
	}

	// Workers
	distributor := worker.NewPoolDistributor(poolService, 0, log)
	nftService.SetPoolNotifier(distributor)
	go distributor.Start(ctx)

	runners := map[job.JobType]job.Runner{
		job.JobTypePoolDistribution:     distributor.Run,
		job.JobTypeLedgerReconciliation: worker.NewLedgerReconciler(ledgerService, log).Run,
		job.JobTypePendingSweep:         worker.NewPendingSweeper(transferService, poolService, log).Run,
	}
	jobService := services.NewJobService(jobRepo, runners, cfg.Jobs, log)
	if cfg.Jobs.Enabled {
		if err := jobService.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer jobService.Stop()
	}

	// HTTP
	val := validator.New()
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(store, poolService, log),
		Auth:         handlers.NewAuthHandler(userService, cfg, log, val),
		Tokens:       handlers.NewTokenHandler(ledgerService, transferService, log, val),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, log, val),
		Gamification: handlers.NewGamificationHandler(ledgerService, econ.Rewards, log, val),
		Nft:          handlers.NewNftHandler(nftService, log, val),
		Pool:         handlers.NewPoolHandler(poolService, distributor, log, val),
		Admin:        handlers.NewAdminHandler(ledgerService, log, val),
		Job:          handlers.NewJobHandler(jobService, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
