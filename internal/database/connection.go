package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens a database connection for the given driver and DSN and
// bootstraps the schema. The caller owns the returned handle and closes it.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		// Create the parent directory for file-backed databases
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist. The DDL
// below is the common subset accepted by both SQLite and Postgres.
func initializeSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS learning_records (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_kind TEXT NOT NULL,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 1,
			review_streak INTEGER NOT NULL DEFAULT 0,
			recent_outcomes TEXT NOT NULL DEFAULT '',
			memory_strength REAL NOT NULL DEFAULT 0,
			mastery_level TEXT NOT NULL DEFAULT 'new',
			last_reviewed_at TIMESTAMP NOT NULL,
			next_due_at TIMESTAMP NOT NULL,
			retired BOOLEAN NOT NULL DEFAULT FALSE,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, item_id, item_kind)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create learning_records table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_learning_records_due
		ON learning_records (user_id, retired, next_due_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create due index: %w", err)
	}

	return nil
}
