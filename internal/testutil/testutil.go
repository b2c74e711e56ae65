package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moodlync/tokencore/internal/repository/postgres"
	"github.com/moodlync/tokencore/migrations"
	_ "modernc.org/sqlite"
)

var dbSeq int64

// NewTestDB creates an in-memory SQLite database with every migration applied
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// A named shared-cache database keeps the schema visible if the pool ever
	// opens a second connection.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", atomic.AddInt64(&dbSeq, 1))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	fsys, err := migrations.GetFS("sqlite")
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}
	if _, err := postgres.RunMigrations(context.Background(), db, fsys); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	return db
}

// NewTestStore wraps NewTestDB in a store and closes it when the test ends
func NewTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	db := NewTestDB(t)
	t.Cleanup(func() { CleanupDB(db) })
	return postgres.NewStore(db, "sqlite")
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}

// FixedTime returns a whole-second UTC instant; timestamps are stored at
// second precision
func FixedTime() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}
