// Package store provides storage backends for shepherd.
//
// It persists extracted prayer records and message analytics events, with
// SQLite, PostgreSQL, and in-memory implementations.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/harborlight-labs/shepherd/internal/models"
)

// Store is the persistence contract the bot depends on. Storage errors
// propagate to the caller; nothing here retries.
type Store interface {
	// SavePrayer persists an extracted prayer record.
	SavePrayer(rec models.PrayerRecord) error

	// PrayersBetween returns prayer records posted within [start, end],
	// ordered by posting time.
	PrayersBetween(start, end time.Time) ([]models.PrayerRecord, error)

	// SaveMessageEvent records an inbound message for analytics.
	SaveMessageEvent(ev models.MessageEvent) error

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration for store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN (a SQLite file path or a PostgreSQL URL).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// NewStore builds the backend matching the configured DSN: PostgreSQL for
// postgres URLs, SQLite for file paths, in-memory when no DSN is set.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case cfg.DSN == "":
		slog.Debug("no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	case DetectDSNType(cfg.DSN) == "postgres":
		slog.Debug("detected PostgreSQL DSN", "dsn_set", true)
		return NewPostgresStore(opts...)
	default:
		slog.Debug("detected SQLite DSN", "db_path", cfg.DSN)
		return NewSQLiteStore(opts...)
	}
}

// InMemoryStore keeps records in process memory; used in tests and when no
// database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	prayers []models.PrayerRecord
	events  []models.MessageEvent
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// SavePrayer stores the record in memory.
func (s *InMemoryStore) SavePrayer(rec models.PrayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prayers = append(s.prayers, rec)
	slog.Debug("InMemoryStore SavePrayer succeeded", "id", rec.ID, "author", rec.AuthorName)
	return nil
}

// PrayersBetween returns records posted within the window, ordered by
// posting time.
func (s *InMemoryStore) PrayersBetween(start, end time.Time) ([]models.PrayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PrayerRecord
	for _, rec := range s.prayers {
		if !rec.PostedAt.Before(start) && !rec.PostedAt.After(end) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedAt.Before(out[j].PostedAt) })
	return out, nil
}

// SaveMessageEvent stores the analytics event in memory.
func (s *InMemoryStore) SaveMessageEvent(ev models.MessageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// MessageEventCount returns the number of stored analytics events.
func (s *InMemoryStore) MessageEventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
