// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/faststart/inviter-backend/internal/config"
)

// Open connects to Postgres and bootstraps the schema. There is no
// migration tool; the schema is additive and idempotent.
func Open(cfg config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName,
	)

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	logrus.WithField("db", cfg.DBName).Info("connected to database")
	return conn, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS friends (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    first_name TEXT NOT NULL,
    profile_photo_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lists (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS list_friends (
    list_id TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
    friend_id TEXT NOT NULL REFERENCES friends(id) ON DELETE CASCADE,
    position INT NOT NULL DEFAULT 0,
    PRIMARY KEY (list_id, friend_id)
);

CREATE TABLE IF NOT EXISTS message_templates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS campaigns (
    id TEXT PRIMARY KEY,
    list_id TEXT NOT NULL REFERENCES lists(id),
    template_id TEXT NOT NULL REFERENCES message_templates(id),
    status TEXT NOT NULL DEFAULT 'active',
    sent_today INT NOT NULL DEFAULT 0,
    last_send_date TEXT NOT NULL DEFAULT '',
    last_variation_index INT,
    started_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS send_records (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    friend_id TEXT NOT NULL REFERENCES friends(id),
    position INT NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending',
    message_variation INT,
    scheduled_at TIMESTAMPTZ,
    sent_at TIMESTAMPTZ,
    error TEXT NOT NULL DEFAULT '',
    UNIQUE (campaign_id, friend_id)
);

CREATE INDEX IF NOT EXISTS idx_send_records_campaign ON send_records(campaign_id);
CREATE INDEX IF NOT EXISTS idx_send_records_status ON send_records(status);
`
