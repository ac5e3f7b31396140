// Package store provides storage backends for shepherd.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/harborlight-labs/shepherd/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL store with the given DSN and runs
// migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("failed to run PostgreSQL migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgreSQL migrations applied")

	return &PostgresStore{db: db}, nil
}

// SavePrayer inserts a prayer record.
func (s *PostgresStore) SavePrayer(rec models.PrayerRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO prayers (id, message_id, author_id, author_name, channel_id, raw_message, extracted, posted_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.MessageID, rec.AuthorID, rec.AuthorName, rec.ChannelID,
		rec.RawMessage, rec.Extracted, rec.PostedAt.UTC(), rec.RecordedAt.UTC())
	if err != nil {
		slog.Error("PostgresStore SavePrayer failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to insert prayer %s: %w", rec.ID, err)
	}
	slog.Debug("PostgresStore SavePrayer succeeded", "id", rec.ID, "author", rec.AuthorName)
	return nil
}

// PrayersBetween returns prayer records posted within the window, ordered by
// posting time.
func (s *PostgresStore) PrayersBetween(start, end time.Time) ([]models.PrayerRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, message_id, author_id, author_name, channel_id, raw_message, extracted, posted_at, recorded_at
		 FROM prayers WHERE posted_at >= $1 AND posted_at <= $2 ORDER BY posted_at`,
		start.UTC(), end.UTC())
	if err != nil {
		slog.Error("PostgresStore PrayersBetween query failed", "error", err)
		return nil, fmt.Errorf("failed to query prayers: %w", err)
	}
	defer rows.Close()

	var out []models.PrayerRecord
	for rows.Next() {
		var rec models.PrayerRecord
		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.AuthorID, &rec.AuthorName, &rec.ChannelID,
			&rec.RawMessage, &rec.Extracted, &rec.PostedAt, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prayer row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveMessageEvent upserts an analytics event keyed by message ID.
func (s *PostgresStore) SaveMessageEvent(ev models.MessageEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO message_events (message_id, author_id, author_name, channel_id, content, posted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (message_id) DO NOTHING`,
		ev.MessageID, ev.AuthorID, ev.AuthorName, ev.ChannelID, ev.Content, ev.PostedAt.UTC())
	if err != nil {
		slog.Error("PostgresStore SaveMessageEvent failed", "error", err, "message_id", ev.MessageID)
		return fmt.Errorf("failed to insert message event %s: %w", ev.MessageID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
