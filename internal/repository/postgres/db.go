package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"
	"github.com/moodlync/tokencore/internal/config"
	_ "modernc.org/sqlite"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// New opens the configured database and waits until it answers a ping.
// Postgres is retried briefly since it often starts alongside the API.
func New(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB

	switch cfg.Driver {
	case "sqlite":
		var err error
		db, err = sql.Open("sqlite", sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		// SQLite only supports one writer at a time; a single connection
		// also serializes ledger transactions.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)

	case "postgres":
		connector, err := pq.NewConnector(postgresDSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("invalid postgres configuration: %w", err)
		}
		db = sql.OpenDB(connector)

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	if err := ping(ctx, db, cfg.Driver); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// sqliteDSN sets the pragmas on every pooled connection rather than once
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

func postgresDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=moodlync-tokens",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)
}

func ping(ctx context.Context, db *sql.DB, driver string) error {
	attempts := 1
	if driver == "postgres" {
		attempts = connectAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(connectBackoff * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed to ping database: %w", err)
}
