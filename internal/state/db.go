// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS emission_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			emission_rate_per_ms NUMERIC(40, 0) NOT NULL,
			genesis_time BIGINT NOT NULL,
			referral_share_bps BIGINT NOT NULL,
			reward_pool_weight_divisor BIGINT NOT NULL,
			reward_denom VARCHAR(128) NOT NULL,
			stake_denom VARCHAR(128) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_emission_parameters_active ON emission_parameters(is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS farm_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			taken_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			pool_count INTEGER NOT NULL,
			account_count INTEGER NOT NULL,
			ledger JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_farm_snapshots_taken_at ON farm_snapshots(taken_at DESC);

		CREATE TABLE IF NOT EXISTS farm_events (
			event_id SERIAL PRIMARY KEY,
			kind VARCHAR(50) NOT NULL,
			trace_id VARCHAR(64) NOT NULL,
			emitted_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_farm_events_emitted_at ON farm_events(emitted_at DESC);
		CREATE INDEX IF NOT EXISTS idx_farm_events_kind ON farm_events(kind);
		CREATE INDEX IF NOT EXISTS idx_farm_events_trace ON farm_events(trace_id);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
