// Package catalog loads the static assessment data: the ordered question
// sequence with per-option trait weights, and the profile table keyed by
// four-letter code. Both are loaded once at startup and treated as opaque
// immutable inputs by the session engine.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "embed"

	"github.com/harborlight-labs/shepherd/internal/models"
)

// QuickSubsetSize is the length of the curated quick-mode prefix.
const QuickSubsetSize = 5

//go:embed data/questions.json
var defaultQuestions []byte

//go:embed data/profiles.json
var defaultProfiles []byte

// Opts holds configuration for catalog loading.
type Opts struct {
	QuestionsPath string
	ProfilesPath  string
}

// Option configures catalog loading.
type Option func(*Opts)

// WithQuestionsFile overrides the embedded question data with a JSON file.
func WithQuestionsFile(path string) Option {
	return func(o *Opts) { o.QuestionsPath = path }
}

// WithProfilesFile overrides the embedded profile data with a JSON file.
func WithProfilesFile(path string) Option {
	return func(o *Opts) { o.ProfilesPath = path }
}

// Catalog holds the loaded question sequences and profile table.
type Catalog struct {
	full     []models.Question
	quick    []models.Question
	profiles map[string]models.Profile
}

// Load reads the question and profile data. Without file overrides the
// embedded defaults are used. An unreadable or empty catalog is an error;
// callers treat that as fatal at startup.
func Load(opts ...Option) (*Catalog, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	questionsData := defaultQuestions
	if cfg.QuestionsPath != "" {
		data, err := os.ReadFile(cfg.QuestionsPath)
		if err != nil {
			return nil, fmt.Errorf("read questions file: %w", err)
		}
		questionsData = data
	}

	profilesData := defaultProfiles
	if cfg.ProfilesPath != "" {
		data, err := os.ReadFile(cfg.ProfilesPath)
		if err != nil {
			return nil, fmt.Errorf("read profiles file: %w", err)
		}
		profilesData = data
	}

	var questions []models.Question
	if err := json.Unmarshal(questionsData, &questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question catalog is empty")
	}
	for i, q := range questions {
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("question %d has no options", i)
		}
	}

	var profileList []models.Profile
	if err := json.Unmarshal(profilesData, &profileList); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(profileList) == 0 {
		return nil, fmt.Errorf("profile catalog is empty")
	}
	profiles := make(map[string]models.Profile, len(profileList))
	for _, p := range profileList {
		profiles[p.Code] = p
	}

	quick := questions
	if len(questions) > QuickSubsetSize {
		quick = questions[:QuickSubsetSize]
	}

	slog.Info("catalog loaded", "questions", len(questions), "quick_subset", len(quick), "profiles", len(profiles))
	return &Catalog{full: questions, quick: quick, profiles: profiles}, nil
}

// Questions returns the ordered question sequence for the given mode.
func (c *Catalog) Questions(mode models.Mode) []models.Question {
	if mode == models.ModeQuick {
		return c.quick
	}
	return c.full
}

// Profile looks up the profile for a four-letter code.
func (c *Catalog) Profile(code string) (models.Profile, bool) {
	p, ok := c.profiles[code]
	return p, ok
}

// ProfileCount returns the number of loaded profiles.
func (c *Catalog) ProfileCount() int { return len(c.profiles) }
