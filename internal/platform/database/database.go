// Package database manages the PostgreSQL pool behind the content store and
// applies its schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultAppName is reported to PostgreSQL as application_name.
const DefaultAppName = "pai-content"

// PoolConfig sizes and labels the connection pool.
type PoolConfig struct {
	URL      string
	MaxConns int
	MinConns int
	AppName  string // default DefaultAppName
}

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL validates a PostgreSQL connection string (URL or keyword form).
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// New creates a connection pool and verifies it with a ping.
func New(ctx context.Context, cfg PoolConfig) (*DB, error) {
	if cfg.MaxConns <= 0 {
		return nil, fmt.Errorf("max conns must be positive, got %d", cfg.MaxConns)
	}
	if cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min conns %d out of range [0, %d]", cfg.MinConns, cfg.MaxConns)
	}

	pcfg, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	pcfg.MaxConns = int32(cfg.MaxConns)
	pcfg.MinConns = int32(cfg.MinConns)
	pcfg.MaxConnLifetime = 30 * time.Minute
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pcfg.HealthCheckPeriod = time.Minute

	appName := cfg.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	pcfg.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	slog.Info("database connected",
		"host", pcfg.ConnConfig.Host,
		"database", pcfg.ConnConfig.Database,
		"max_conns", pcfg.MaxConns,
	)
	return &DB{Pool: pool}, nil
}

// Open connects and brings the schema up to date. The pool is closed again
// when migration fails.
func Open(ctx context.Context, cfg PoolConfig) (*DB, error) {
	db, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db.Pool); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
