package assessment

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/harborlight-labs/shepherd/internal/models"
)

// Catalog supplies the immutable question sequences and profile lookup.
type Catalog interface {
	Questions(mode models.Mode) []models.Question
	Profile(code string) (models.Profile, bool)
}

// Final is the terminal result of a completed session.
type Final struct {
	Code    string
	Profile models.Profile
}

// Progress is the outcome of one answer submission: either the next question
// or the final result, never both.
type Progress struct {
	Next      *models.Question
	NextIndex int
	Total     int
	Final     *Final
}

// Engine drives sessions from start to finalization. It holds no per-session
// state of its own; everything lives in the store.
type Engine struct {
	store   *Store
	catalog Catalog
}

// NewEngine creates a session engine over the given store and catalog.
func NewEngine(store *Store, catalog Catalog) *Engine {
	return &Engine{store: store, catalog: catalog}
}

// Start creates a session for ownerID in the given mode and returns it with
// the first question. Fails with ErrAlreadyActive when a session exists.
func (e *Engine) Start(ownerID string, mode models.Mode) (*Session, models.Question, error) {
	questions := e.catalog.Questions(mode)
	if len(questions) == 0 {
		return nil, models.Question{}, fmt.Errorf("no questions available for mode %s", mode)
	}

	sess, err := e.store.TryCreate(ownerID, mode, questions)
	if err != nil {
		return nil, models.Question{}, err
	}

	slog.Info("assessment started", "owner_id", ownerID, "mode", mode, "questions", len(questions))
	return sess, questions[0], nil
}

// Current returns the question awaiting an answer and its index.
func (e *Engine) Current(ownerID string) (models.Question, int, error) {
	var question models.Question
	var index int
	err := e.store.Update(ownerID, func(sess *Session) error {
		if sess.Done() {
			// A terminal session should already have been removed.
			return ErrNoActiveSession
		}
		index = sess.CurrentIndex
		question = sess.Questions[index]
		return nil
	})
	if err != nil {
		return models.Question{}, 0, err
	}
	return question, index, nil
}

// SubmitAnswer records the selected option for the current question and
// advances the session. An out-of-range optionIndex fails with
// ErrInvalidOption and mutates nothing. On the last question the final code
// is computed, the profile looked up, and the session removed. The answer is
// applied under the store lock, so the idle sweep can never observe or
// remove a session mid-mutation.
func (e *Engine) SubmitAnswer(ownerID string, optionIndex int) (Progress, error) {
	var progress Progress
	var code string
	var mode models.Mode
	err := e.store.Update(ownerID, func(sess *Session) error {
		if sess.Done() {
			return ErrNoActiveSession
		}

		question := sess.Questions[sess.CurrentIndex]
		if optionIndex < 0 || optionIndex >= len(question.Options) {
			slog.Warn("invalid option submitted", "owner_id", ownerID, "question", sess.CurrentIndex, "option", optionIndex)
			return ErrInvalidOption
		}

		for trait, weight := range question.Options[optionIndex].Weights {
			sess.Scores[trait] += weight
		}
		sess.CurrentIndex++
		sess.LastActivity = e.store.now()
		slog.Debug("answer recorded", "owner_id", ownerID, "question", sess.CurrentIndex-1, "option", optionIndex)

		progress.Total = len(sess.Questions)
		if !sess.Done() {
			next := sess.Questions[sess.CurrentIndex]
			progress.Next = &next
			progress.NextIndex = sess.CurrentIndex
			return nil
		}
		code = ComputeCode(sess.Scores)
		mode = sess.Mode
		return nil
	})
	if err != nil {
		return Progress{}, err
	}
	if progress.Next != nil {
		return progress, nil
	}

	// The session is terminal; a concurrent submit between here and the
	// removal sees Done and gets ErrNoActiveSession.
	e.store.Remove(ownerID)

	profile, ok := e.catalog.Profile(code)
	if !ok {
		slog.Error("profile missing for computed code", "owner_id", ownerID, "code", code)
		return Progress{}, fmt.Errorf("%w: %s", ErrProfileNotFound, code)
	}

	slog.Info("assessment completed", "owner_id", ownerID, "code", code, "mode", mode)
	return Progress{Total: progress.Total, Final: &Final{Code: code, Profile: profile}}, nil
}

// Abandon removes the owner's session unconditionally.
func (e *Engine) Abandon(ownerID string) {
	e.store.Remove(ownerID)
}

// ActiveSessions returns the number of in-progress sessions.
func (e *Engine) ActiveSessions() int {
	return e.store.Count()
}

// ComputeCode maps accumulated trait scores to the four-letter code. For
// each dimension the pole with the higher score wins; an exact tie always
// resolves to the first-listed pole (E, S, T, J).
func ComputeCode(scores map[string]int) string {
	var b strings.Builder
	for _, pair := range models.TraitPairs {
		if scores[pair[1]] > scores[pair[0]] {
			b.WriteString(pair[1])
		} else {
			b.WriteString(pair[0])
		}
	}
	return b.String()
}
