// Package db opens the PostgreSQL connection pool and owns the schema
// migrations for the pipeline tables.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PoolConfig holds connection pool tuning, overridable per value from the
// environment.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns the pool tuning used when the environment sets
// nothing. The pipeline is a batch workload with one writer and a thin query
// API, so the pool stays small.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    16,
		MaxIdleConns:    8,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open connects to the database named by DATABASE_URL and configures the
// pool. Exits the process if the URL is missing or the database is
// unreachable: nothing in either binary can run without storage.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := poolConfigFromEnv()
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))
	return pool
}

// poolConfigFromEnv overlays environment overrides on the defaults. Invalid
// or non-positive values fall back silently.
func poolConfigFromEnv() PoolConfig {
	cfg := DefaultPoolConfig()

	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			cfg.MaxOpenConns = val
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			cfg.MaxIdleConns = val
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME"); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil && val > 0 {
			cfg.ConnMaxLifetime = val
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_TIME"); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil && val > 0 {
			cfg.ConnMaxIdleTime = val
		}
	}

	return cfg
}
