// Package engagement generates themed community-engagement message pairs.
//
// Each pair is a short mentor-facing nudge plus a longer audience-facing
// prompt. Generation runs through the bounded retry policy and a strict
// two-field contract; when both are exhausted the generator falls back to a
// pre-authored pool, so Generate never fails.
package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/harborlight-labs/shepherd/internal/contract"
	"github.com/harborlight-labs/shepherd/internal/genai"
	"github.com/harborlight-labs/shepherd/internal/retry"
)

// Fixed pipeline parameters.
const (
	maxAttempts = 2
	backoff     = 2 * time.Second
	callTimeout = 10 * time.Second
	temperature = 0.9
	maxTokens   = 500
)

// Pair is one engagement message: a mentor-facing nudge and the
// audience-facing conversation prompt mentors pass along.
type Pair struct {
	Nudge  string `json:"nudge"`
	Prompt string `json:"prompt"`
}

// Theme is one entry of the fixed tone catalog.
type Theme struct {
	Tag      string
	Guidance string
}

// Themes is the fixed catalog a generation draws from uniformly at random.
var Themes = []Theme{
	{"meme/internet culture", "Use memes, short-video references, trending topics, viral content"},
	{"sports/competition", "Reference sports, competitions, team spirit, challenges"},
	{"music/arts", "Talk about music, shows, creative projects, playlists"},
	{"gaming/tech", "Gaming references, tech talk, online culture, streamers"},
	{"real talk/deep thoughts", "Deeper questions about life, future, feelings, growth"},
	{"goals/ambitions", "Dreams, college prep, career thoughts, aspirations"},
	{"funny/lighthearted", "Jokes, funny stories, light roasting, humor"},
	{"challenges/support", "Struggles, stress, need for support, helping each other"},
}

// Completer is the slice of the GenAI client the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

// Generator produces engagement pairs with deterministic fallback.
type Generator struct {
	client Completer
	policy retry.Policy
	intn   func(n int) int
	now    func() time.Time
}

// NewGenerator creates an engagement pipeline over the given completer.
func NewGenerator(client Completer) *Generator {
	return &Generator{
		client: client,
		policy: retry.Policy{MaxAttempts: maxAttempts, Backoff: retry.FixedBackoff(backoff)},
		intn:   rand.Intn,
		now:    time.Now,
	}
}

// Generate produces one engagement pair. It never fails: when generation or
// parsing is exhausted it returns a random entry from the fallback pool.
func (g *Generator) Generate(ctx context.Context) Pair {
	theme := Themes[g.intn(len(Themes))]
	prompt := g.buildPrompt(theme)
	slog.Info("generating engagement message", "theme", theme.Tag)

	pair, err := retry.Do(ctx, g.policy, func(ctx context.Context, attempt int) (Pair, error) {
		slog.Debug("engagement generation attempt", "attempt", attempt, "theme", theme.Tag)
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		raw, err := g.client.Complete(callCtx, genai.Request{
			System:      systemPrompt,
			User:        prompt,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return Pair{}, err
		}
		return parsePair(raw)
	})
	if err != nil {
		fallback := FallbackPool[g.intn(len(FallbackPool))]
		slog.Warn("engagement generation exhausted, using fallback", "error", err, "theme", theme.Tag)
		return fallback
	}

	return pair
}

// parsePair validates the two-field contract on a raw model response.
func parsePair(raw string) (Pair, error) {
	var pair Pair
	if err := contract.Unmarshal(raw, &pair); err != nil {
		return Pair{}, err
	}
	if err := contract.RequireNonEmpty(raw, map[string]string{
		"nudge":  pair.Nudge,
		"prompt": pair.Prompt,
	}); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

const systemPrompt = "You're a creative genius helping mentors connect with teens (13-20). " +
	"Every message must be wildly different, unexpected, and fun. Never repeat formats or ideas. " +
	"Be specific, quirky, and use current teen culture references."

func (g *Generator) buildPrompt(theme Theme) string {
	return fmt.Sprintf(`Theme: %s
Guidance: %s

You're creating an engagement prompt for mentors to use with teens (13-20).
Be EXTREMELY creative and varied. Each message should be completely unique.

Try formats like:
- Interactive polls or would-you-rather scenarios
- Creative sharing prompts (playlists, photos, stories)
- Mini-challenges or games
- Unconventional discussion starters
- Tier lists or rankings
- Fill-in-the-blank stories
- Hypothetical scenarios

Output as JSON with exactly these fields:
{"nudge": "[gentle nudge for mentors, 150-200 chars]",
 "prompt": "[super creative prompt for teens, 250-400 chars]"}

The prompt should be FUN and ENGAGING - something teens will actually want to respond to.
Avoid boring generic questions. Be specific, quirky, or unexpected.
Date context: %s`, theme.Tag, theme.Guidance, g.now().Format("January 02, 2006"))
}
