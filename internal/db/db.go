// Package db provides PostgreSQL storage for generated content, settings and
// personality profiles.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/content-engine/internal/content"
)

// DB wraps a PostgreSQL connection pool. Every query checks out its own
// connection, so concurrent tasks never share a session.
type DB struct {
	pool         *pgxpool.Pool
	scheduleHour int
	now          func() time.Time
}

// Option configures a DB.
type Option func(*DB)

// WithScheduleHour sets the hour new records are scheduled for.
func WithScheduleHour(hour int) Option {
	return func(db *DB) { db.scheduleHour = hour }
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool, scheduleHour: content.DefaultScheduleHour, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS content_records (
	id            UUID PRIMARY KEY,
	campaign_id   TEXT NOT NULL,
	user_id       UUID NOT NULL,
	week          INTEGER NOT NULL,
	day           INTEGER NOT NULL,
	platform      TEXT NOT NULL,
	content       TEXT NOT NULL DEFAULT '',
	content_html  TEXT,
	title         TEXT NOT NULL,
	post_title    TEXT,
	post_excerpt  TEXT,
	permalink     TEXT,
	image_url     TEXT,
	status        TEXT NOT NULL DEFAULT 'draft',
	schedule_time TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (campaign_id, user_id, week, day, platform)
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS personalities (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	enabled     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables this service uses if they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
