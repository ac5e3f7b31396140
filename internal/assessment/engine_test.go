package assessment

import (
	"errors"
	"sync"
	"testing"

	"github.com/harborlight-labs/shepherd/internal/models"
)

// fakeCatalog serves a fixed five-question quick sequence covering all four
// dimensions, plus a configurable profile table.
type fakeCatalog struct {
	questions []models.Question
	profiles  map[string]models.Profile
}

func (c *fakeCatalog) Questions(mode models.Mode) []models.Question { return c.questions }

func (c *fakeCatalog) Profile(code string) (models.Profile, bool) {
	p, ok := c.profiles[code]
	return p, ok
}

func newFakeCatalog() *fakeCatalog {
	q := func(first, second string) models.Question {
		return models.Question{
			Text: first + " or " + second,
			Options: []models.Option{
				{Text: "strongly " + first, Weights: map[string]int{first: 2}},
				{Text: "strongly " + second, Weights: map[string]int{second: 2}},
			},
		}
	}
	return &fakeCatalog{
		questions: []models.Question{
			q("E", "I"), q("S", "N"), q("T", "F"), q("J", "P"), q("E", "I"),
		},
		profiles: map[string]models.Profile{
			"ENFP": {Code: "ENFP", Name: "The Campaigner", Description: "enthusiastic"},
			"ESTJ": {Code: "ESTJ", Name: "The Executive", Description: "organized"},
			"INFP": {Code: "INFP", Name: "The Mediator", Description: "idealistic"},
		},
	}
}

func newTestEngine() (*Engine, *Store) {
	st := NewStore()
	return NewEngine(st, newFakeCatalog()), st
}

func TestStart_ReturnsFirstQuestion(t *testing.T) {
	e, _ := newTestEngine()
	sess, first, err := e.Start("u1", models.ModeQuick)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", sess.CurrentIndex)
	}
	if first.Text != "E or I" {
		t.Errorf("unexpected first question: %q", first.Text)
	}
}

func TestStart_ConflictForSameOwner(t *testing.T) {
	e, _ := newTestEngine()
	if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := e.Start("u1", models.ModeFull); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestSubmitAnswer_NoSession(t *testing.T) {
	e, _ := newTestEngine()
	if _, err := e.SubmitAnswer("ghost", 0); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestSubmitAnswer_InvalidOptionMutatesNothing(t *testing.T) {
	e, st := newTestEngine()
	if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, idx := range []int{-1, 2, 99} {
		if _, err := e.SubmitAnswer("u1", idx); !errors.Is(err, ErrInvalidOption) {
			t.Errorf("option %d: expected ErrInvalidOption, got %v", idx, err)
		}
	}

	sess := st.Get("u1")
	if sess.CurrentIndex != 0 {
		t.Errorf("expected index unchanged, got %d", sess.CurrentIndex)
	}
	if len(sess.Scores) != 0 {
		t.Errorf("expected scores unchanged, got %v", sess.Scores)
	}
}

func TestSubmitAnswer_AdvancesThroughQuestions(t *testing.T) {
	e, _ := newTestEngine()
	if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
		t.Fatalf("start: %v", err)
	}

	prog, err := e.SubmitAnswer("u1", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if prog.Final != nil {
		t.Fatal("expected no final result after first answer")
	}
	if prog.Next == nil || prog.Next.Text != "S or N" {
		t.Errorf("expected next question 'S or N', got %+v", prog.Next)
	}
	if prog.NextIndex != 1 || prog.Total != 5 {
		t.Errorf("expected index 1 of 5, got %d of %d", prog.NextIndex, prog.Total)
	}
}

// Answers E, N, F, P, E must always produce ENFP.
func TestFullRun_DeterministicCode(t *testing.T) {
	answers := []int{0, 1, 1, 1, 0}

	for run := 0; run < 3; run++ {
		e, st := newTestEngine()
		if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
			t.Fatalf("start: %v", err)
		}

		var final *Final
		for i, a := range answers {
			prog, err := e.SubmitAnswer("u1", a)
			if err != nil {
				t.Fatalf("answer %d: %v", i, err)
			}
			final = prog.Final
		}

		if final == nil {
			t.Fatal("expected final result after last answer")
		}
		if final.Code != "ENFP" {
			t.Errorf("run %d: expected ENFP, got %s", run, final.Code)
		}
		if final.Profile.Name != "The Campaigner" {
			t.Errorf("unexpected profile: %+v", final.Profile)
		}
		if st.Get("u1") != nil {
			t.Error("expected session removed after completion")
		}
	}
}

func TestSubmitAnswer_ProfileNotFound(t *testing.T) {
	st := NewStore()
	cat := newFakeCatalog()
	cat.profiles = map[string]models.Profile{} // empty catalog
	e := NewEngine(st, cat)

	if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
		t.Fatalf("start: %v", err)
	}
	var err error
	for _, a := range []int{0, 0, 0, 0, 0} {
		_, err = e.SubmitAnswer("u1", a)
	}
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
	if st.Get("u1") != nil {
		t.Error("expected session removed even when profile lookup fails")
	}
}

// Answers and the idle sweep race on the same session; run under -race this
// must stay silent, and every outcome must be one of the defined results.
func TestSubmitAnswer_ConcurrentWithSweep(t *testing.T) {
	e, st := newTestEngine()
	const iterations = 500

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if _, _, err := e.Start("u1", models.ModeQuick); err != nil && !errors.Is(err, ErrAlreadyActive) {
				t.Errorf("start: %v", err)
				return
			}
			if _, err := e.SubmitAnswer("u1", 0); err != nil && !errors.Is(err, ErrNoActiveSession) {
				t.Errorf("submit: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			st.SweepIdle(0)
		}
	}()
	wg.Wait()
}

func TestComputeCode_TieBreaksToFirstPole(t *testing.T) {
	// All dimensions exactly tied, including all-zero.
	for _, scores := range []map[string]int{
		{},
		{"E": 3, "I": 3, "S": 1, "N": 1, "T": 0, "F": 0, "J": 2, "P": 2},
	} {
		for run := 0; run < 5; run++ {
			if code := ComputeCode(scores); code != "ESTJ" {
				t.Errorf("scores %v: expected tie-break ESTJ, got %s", scores, code)
			}
		}
	}
}

func TestComputeCode_SecondPoleWinsStrictly(t *testing.T) {
	scores := map[string]int{"E": 1, "I": 2, "S": 0, "N": 1, "T": 2, "F": 3, "J": 0, "P": 4}
	if code := ComputeCode(scores); code != "INFP" {
		t.Errorf("expected INFP, got %s", code)
	}
}

func TestAbandon(t *testing.T) {
	e, st := newTestEngine()
	if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.Abandon("u1")
	if st.Get("u1") != nil {
		t.Error("expected session removed after abandon")
	}
	if _, err := e.SubmitAnswer("u1", 0); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession after abandon, got %v", err)
	}
}

func TestCurrent(t *testing.T) {
	e, _ := newTestEngine()
	if _, _, err := e.Start("u1", models.ModeQuick); err != nil {
		t.Fatalf("start: %v", err)
	}
	q, idx, err := e.Current("u1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if idx != 0 || q.Text != "E or I" {
		t.Errorf("unexpected current question: %d %q", idx, q.Text)
	}
	if _, _, err := e.Current("ghost"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}
}
