// Package config loads engine configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Database selects the storage backend.
type Database struct {
	Driver string // "sqlite3" or "postgres"
	DSN    string
}

// Engine tunes the contended-upsert retry loop.
type Engine struct {
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Reminder tunes the due-digest job.
type Reminder struct {
	StartHour int // First hour of the day reminders may fire
	EndHour   int // Last hour of the day reminders may fire
	DueLimit  int // Max items counted per user per digest
}

// Config is the full application configuration.
type Config struct {
	Database Database
	Engine   Engine
	Reminder Reminder
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is fine; env vars alone are a complete configuration.
	_ = godotenv.Load()

	cfg := &Config{
		Database: Database{
			Driver: "sqlite3",
			DSN:    "data/recall.db",
		},
		Engine: Engine{
			RetryAttempts: 3,
			RetryBackoff:  10 * time.Millisecond,
		},
		Reminder: Reminder{
			StartHour: 8,
			EndHour:   22,
			DueLimit:  50,
		},
	}

	switch dbType := os.Getenv("DB_TYPE"); dbType {
	case "", "sqlite":
		if path := os.Getenv("DB_PATH"); path != "" {
			cfg.Database.DSN = path
		}
	case "postgres":
		cfg.Database.Driver = "postgres"
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, fmt.Errorf("DB_TYPE=postgres requires DATABASE_URL")
		}
		cfg.Database.DSN = dsn
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	var err error
	if cfg.Engine.RetryAttempts, err = intEnv("UPSERT_RETRY_ATTEMPTS", cfg.Engine.RetryAttempts, 1, 100); err != nil {
		return nil, err
	}
	backoffMS, err := intEnv("UPSERT_RETRY_BACKOFF_MS", int(cfg.Engine.RetryBackoff/time.Millisecond), 1, 60000)
	if err != nil {
		return nil, err
	}
	cfg.Engine.RetryBackoff = time.Duration(backoffMS) * time.Millisecond

	if cfg.Reminder.StartHour, err = intEnv("NOTIFICATION_START_HOUR", cfg.Reminder.StartHour, 0, 23); err != nil {
		return nil, err
	}
	if cfg.Reminder.EndHour, err = intEnv("NOTIFICATION_END_HOUR", cfg.Reminder.EndHour, 0, 23); err != nil {
		return nil, err
	}
	if cfg.Reminder.DueLimit, err = intEnv("REMINDER_DUE_LIMIT", cfg.Reminder.DueLimit, 1, 1000); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(name string, def, min, max int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", name, raw, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s=%d out of range [%d,%d]", name, v, min, max)
	}
	return v, nil
}
