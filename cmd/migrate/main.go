package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moodlync/tokencore/internal/config"
	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/migrations"
)

const usage = `Usage: migrate [up|status]

  up      apply pending migrations (default)
  status  list migrations and when they were applied`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	if command != "up" && command != "status" {
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fsys, err := migrations.GetFS(cfg.Database.Driver)
	if err != nil {
		return err
	}

	if command == "status" {
		status, err := postgres.MigrationStatus(ctx, db, fsys)
		if err != nil {
			return err
		}
		for _, m := range status {
			applied := "pending"
			if m.AppliedAt != nil {
				applied = m.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-32s %s\n", m.Version, applied)
		}
		return nil
	}

	applied, err := postgres.RunMigrations(ctx, db, fsys)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if applied == 0 {
		fmt.Printf("%s database is up to date\n", cfg.Database.Driver)
		return nil
	}
	fmt.Printf("Applied %d migration(s) to %s database\n", applied, cfg.Database.Driver)
	return nil
}
