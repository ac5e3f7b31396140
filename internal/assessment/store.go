// Package assessment drives the personality-assessment sessions.
//
// A session walks one user through a question sequence over direct messages,
// accumulating trait scores until a final four-letter code is computed. The
// store enforces the one-active-session-per-user invariant.
package assessment

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/harborlight-labs/shepherd/internal/models"
)

// Error taxonomy for the session layer. All user-caused and non-fatal.
var (
	ErrAlreadyActive   = errors.New("an assessment session is already active for this user")
	ErrNoActiveSession = errors.New("no active assessment session for this user")
	ErrInvalidOption   = errors.New("selected option is out of range")
	ErrProfileNotFound = errors.New("no profile matches the computed code")
)

// Session is one user's in-progress assessment. It is owned exclusively by
// the Store; progress fields are read and mutated only under the store lock
// via Update.
type Session struct {
	OwnerID      string
	Mode         models.Mode
	Questions    []models.Question
	CurrentIndex int
	Scores       map[string]int
	StartedAt    time.Time
	LastActivity time.Time
}

// Done reports whether the session has answered every question.
func (s *Session) Done() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// Store maps owner IDs to their active session. The check-and-insert in
// TryCreate holds the lock across both steps; nothing in between can yield,
// so two near-simultaneous starts for the same owner cannot both succeed.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// TryCreate atomically creates a session for ownerID. If one already exists
// it returns ErrAlreadyActive without mutating anything.
func (st *Store) TryCreate(ownerID string, mode models.Mode, questions []models.Question) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sessions[ownerID]; exists {
		slog.Warn("session create rejected, already active", "owner_id", ownerID)
		return nil, ErrAlreadyActive
	}

	now := st.now()
	sess := &Session{
		OwnerID:      ownerID,
		Mode:         mode,
		Questions:    questions,
		Scores:       make(map[string]int),
		StartedAt:    now,
		LastActivity: now,
	}
	st.sessions[ownerID] = sess
	slog.Debug("session created", "owner_id", ownerID, "mode", mode, "questions", len(questions))
	return sess, nil
}

// Get returns the active session for ownerID, or nil. The returned pointer
// must not be used concurrently with Update or SweepIdle; live progress goes
// through Update.
func (st *Store) Get(ownerID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[ownerID]
}

// Update runs fn on ownerID's active session while holding the store lock,
// so the read-modify-write of session state cannot interleave with the idle
// sweep or another update. Returns ErrNoActiveSession when no session
// exists; fn's error passes through unchanged.
func (st *Store) Update(ownerID string, fn func(*Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[ownerID]
	if !ok {
		return ErrNoActiveSession
	}
	return fn(sess)
}

// Remove deletes the session for ownerID, if any.
func (st *Store) Remove(ownerID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[ownerID]; exists {
		delete(st.sessions, ownerID)
		slog.Debug("session removed", "owner_id", ownerID)
	}
}

// Count returns the number of active sessions.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// SweepIdle removes sessions whose last activity is older than maxIdle and
// returns how many were removed.
func (st *Store) SweepIdle(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-maxIdle)
	removed := 0
	for owner, sess := range st.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(st.sessions, owner)
			removed++
			slog.Info("idle session swept", "owner_id", owner, "last_activity", sess.LastActivity)
		}
	}
	return removed
}
