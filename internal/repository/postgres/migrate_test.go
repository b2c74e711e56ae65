package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/migrations"
	_ "modernc.org/sqlite"
)

func TestRunMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", "file:migrate_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	fsys, err := migrations.GetFS("sqlite")
	if err != nil {
		t.Fatal(err)
	}

	before, err := postgres.MigrationStatus(ctx, db, fsys)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(before) == 0 {
		t.Fatal("expected embedded sqlite migrations")
	}
	for _, m := range before {
		if m.AppliedAt != nil {
			t.Errorf("%s reported applied on a fresh database", m.Version)
		}
	}

	applied, err := postgres.RunMigrations(ctx, db, fsys)
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if applied != len(before) {
		t.Errorf("applied = %d, want %d", applied, len(before))
	}

	again, err := postgres.RunMigrations(ctx, db, fsys)
	if err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
	if again != 0 {
		t.Errorf("second run applied %d migrations", again)
	}

	after, err := postgres.MigrationStatus(ctx, db, fsys)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range after {
		if m.AppliedAt == nil {
			t.Errorf("%s not recorded as applied", m.Version)
		}
	}

	if _, err := db.Exec("SELECT balance_after FROM reward_activities LIMIT 1"); err != nil {
		t.Errorf("ledger table missing after migration: %v", err)
	}
}

func TestGetFSUnknownDriver(t *testing.T) {
	if _, err := migrations.GetFS("mysql"); err == nil {
		t.Error("expected an error for an unsupported driver")
	}
}
