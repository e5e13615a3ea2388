package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "streampulse/internal/errors"
)

// Connect opens a pgx connection pool with production pool settings.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations creates the live_streams and stream_events tables.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS live_streams (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_live BOOLEAN NOT NULL DEFAULT FALSE,
			started_at TIMESTAMPTZ,
			ended_at TIMESTAMPTZ,
			viewers INT NOT NULL DEFAULT 0,
			peak_viewers INT NOT NULL DEFAULT 0,
			duration BIGINT NOT NULL DEFAULT 0,
			stream_key TEXT UNIQUE NOT NULL,
			playback_url TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT NOT NULL DEFAULT '',
			quality TEXT NOT NULL,
			bitrate INT NOT NULL,
			resolution TEXT NOT NULL DEFAULT '',
			fps INT NOT NULL DEFAULT 0,
			codec TEXT NOT NULL DEFAULT '',
			privacy TEXT NOT NULL DEFAULT 'public',
			category TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			is_nsfw BOOLEAN NOT NULL DEFAULT FALSE,
			nsfw_level TEXT NOT NULL DEFAULT '',
			age_restriction INT NOT NULL DEFAULT 0,
			content_warnings TEXT[] NOT NULL DEFAULT '{}',
			ai_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			ai_realtime_enhancement BOOLEAN NOT NULL DEFAULT FALSE,
			ai_auto_moderation BOOLEAN NOT NULL DEFAULT FALSE,
			ai_viewer_analytics BOOLEAN NOT NULL DEFAULT FALSE,
			total_views INT NOT NULL DEFAULT 0,
			unique_viewers INT NOT NULL DEFAULT 0,
			average_watch_time FLOAT NOT NULL DEFAULT 0,
			engagement_rate FLOAT NOT NULL DEFAULT 0,
			chat_messages INT NOT NULL DEFAULT 0,
			reactions INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_live_streams_live_viewers ON live_streams (is_live, viewers DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_live_streams_user_created ON live_streams (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS stream_events (
			id TEXT PRIMARY KEY,
			stream_id TEXT NOT NULL REFERENCES live_streams(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			data JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stream_events_stream_created ON stream_events (stream_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}

// HealthCheck pings the pool.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// undefinedTableCode is the Postgres error code for a missing table.
const undefinedTableCode = "42P01"

// isUnavailable reports whether err means the store cannot serve requests:
// missing table, connectivity failure, or timeout.
func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// wrapStoreErr classifies repository errors so callers can distinguish an
// unreachable store from an ordinary query failure.
func wrapStoreErr(operation string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return apperrors.UnavailableError("store unreachable", err).WithContext("operation", operation)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
