package engagement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harborlight-labs/shepherd/internal/genai"
	"github.com/harborlight-labs/shepherd/internal/retry"
)

type mockCompleter struct {
	responses []string
	errs      []error
	calls     int
	lastReq   genai.Request
}

func (m *mockCompleter) Complete(ctx context.Context, req genai.Request) (string, error) {
	i := m.calls
	m.calls++
	m.lastReq = req
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var resp string
	if i < len(m.responses) {
		resp = m.responses[i]
	}
	return resp, err
}

// newTestGenerator builds a generator with zero backoff and a scripted
// random source. picks are consumed in order; the last value repeats.
func newTestGenerator(c Completer, picks ...int) *Generator {
	idx := 0
	return &Generator{
		client: c,
		policy: retry.Policy{MaxAttempts: 2},
		intn: func(n int) int {
			p := picks[idx]
			if idx < len(picks)-1 {
				idx++
			}
			return p % n
		},
		now: func() time.Time { return time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC) },
	}
}

func TestGenerate_Success(t *testing.T) {
	mock := &mockCompleter{responses: []string{`{"nudge": "check in!", "prompt": "what's your week in 3 emojis?"}`}}
	g := newTestGenerator(mock, 0)

	pair := g.Generate(context.Background())
	if pair.Nudge != "check in!" || pair.Prompt != "what's your week in 3 emojis?" {
		t.Errorf("unexpected pair: %+v", pair)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}

func TestGenerate_FencedJSONAccepted(t *testing.T) {
	raw := "```json\n{\"nudge\": \"hey mentors\", \"prompt\": \"tier-list your snacks\"}\n```"
	mock := &mockCompleter{responses: []string{raw}}
	g := newTestGenerator(mock, 0)

	pair := g.Generate(context.Background())
	if pair.Nudge != "hey mentors" {
		t.Errorf("expected fenced JSON unwrapped, got %+v", pair)
	}
}

func TestGenerate_ThemeSelectionInjected(t *testing.T) {
	mock := &mockCompleter{responses: []string{`{"nudge": "n", "prompt": "p"}`}}
	g := newTestGenerator(mock, 3)

	g.Generate(context.Background())
	if !strings.Contains(mock.lastReq.User, Themes[3].Tag) {
		t.Errorf("expected theme %q in prompt, got: %s", Themes[3].Tag, mock.lastReq.User)
	}
}

func TestGenerate_MissingFieldRetriesThenFallback(t *testing.T) {
	// Both attempts return payloads violating the two-field contract.
	mock := &mockCompleter{responses: []string{
		`{"nudge": "only a nudge"}`,
		`{"nudge": "", "prompt": ""}`,
	}}
	g := newTestGenerator(mock, 0, 2)

	pair := g.Generate(context.Background())
	if mock.calls != 2 {
		t.Errorf("expected malformed payloads retried, got %d calls", mock.calls)
	}
	if pair != FallbackPool[2] {
		t.Errorf("expected fallback pool entry 2, got %+v", pair)
	}
}

func TestGenerate_ServiceDownFallsBack(t *testing.T) {
	mock := &mockCompleter{errs: []error{errors.New("down"), errors.New("down")}}
	g := newTestGenerator(mock, 1, 4)

	pair := g.Generate(context.Background())
	if pair != FallbackPool[4] {
		t.Errorf("expected fallback pool entry 4, got %+v", pair)
	}
}

func TestGenerate_AlwaysMalformedNeverPanics(t *testing.T) {
	for i := 0; i < len(FallbackPool); i++ {
		mock := &mockCompleter{responses: []string{"garbage", "more garbage"}}
		g := newTestGenerator(mock, 0, i)
		pair := g.Generate(context.Background())
		if pair.Nudge == "" || pair.Prompt == "" {
			t.Fatalf("fallback %d produced empty pair: %+v", i, pair)
		}
	}
}

func TestParsePair_Valid(t *testing.T) {
	pair, err := parsePair(`{"nudge": "a", "prompt": "b"}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pair.Nudge != "a" || pair.Prompt != "b" {
		t.Errorf("unexpected pair: %+v", pair)
	}
}

func TestParsePair_MissingField(t *testing.T) {
	_, err := parsePair(`{"prompt": "b"}`)
	if err == nil {
		t.Fatal("expected contract violation for missing nudge")
	}
}

func TestFallbackPool_AllComplete(t *testing.T) {
	for i, pair := range FallbackPool {
		if strings.TrimSpace(pair.Nudge) == "" || strings.TrimSpace(pair.Prompt) == "" {
			t.Errorf("fallback entry %d has empty field", i)
		}
	}
}
