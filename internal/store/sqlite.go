// Package store provides storage backends for shepherd.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/harborlight-labs/shepherd/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists records in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite store at the DSN file path, creating the
// parent directory and running migrations as needed.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

// SavePrayer inserts a prayer record.
func (s *SQLiteStore) SavePrayer(rec models.PrayerRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO prayers (id, message_id, author_id, author_name, channel_id, raw_message, extracted, posted_at, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.MessageID, rec.AuthorID, rec.AuthorName, rec.ChannelID,
		rec.RawMessage, rec.Extracted, rec.PostedAt.UTC(), rec.RecordedAt.UTC())
	if err != nil {
		slog.Error("SQLiteStore SavePrayer failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to insert prayer %s: %w", rec.ID, err)
	}
	slog.Debug("SQLiteStore SavePrayer succeeded", "id", rec.ID, "author", rec.AuthorName)
	return nil
}

// PrayersBetween returns prayer records posted within the window, ordered by
// posting time.
func (s *SQLiteStore) PrayersBetween(start, end time.Time) ([]models.PrayerRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, message_id, author_id, author_name, channel_id, raw_message, extracted, posted_at, recorded_at
		 FROM prayers WHERE posted_at >= ? AND posted_at <= ? ORDER BY posted_at`,
		start.UTC(), end.UTC())
	if err != nil {
		slog.Error("SQLiteStore PrayersBetween query failed", "error", err)
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
func (s *SQLiteStore) SaveMessageEvent(ev models.MessageEvent) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO message_events (message_id, author_id, author_name, channel_id, content, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.MessageID, ev.AuthorID, ev.AuthorName, ev.ChannelID, ev.Content, ev.PostedAt.UTC())
	if err != nil {
		slog.Error("SQLiteStore SaveMessageEvent failed", "error", err, "message_id", ev.MessageID)
		return fmt.Errorf("failed to insert message event %s: %w", ev.MessageID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
