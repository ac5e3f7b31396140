package catalog

import (
	"testing"

	"github.com/harborlight-labs/shepherd/internal/models"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Questions(models.ModeFull)) != 20 {
		t.Errorf("expected 20 full questions, got %d", len(cat.Questions(models.ModeFull)))
	}
	if len(cat.Questions(models.ModeQuick)) != QuickSubsetSize {
		t.Errorf("expected %d quick questions, got %d", QuickSubsetSize, len(cat.Questions(models.ModeQuick)))
	}
	if cat.ProfileCount() != 16 {
		t.Errorf("expected 16 profiles, got %d", cat.ProfileCount())
	}
}

func TestLoad_QuickSubsetIsPrefix(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	full := cat.Questions(models.ModeFull)
	quick := cat.Questions(models.ModeQuick)
	for i := range quick {
		if quick[i].Text != full[i].Text {
			t.Errorf("quick question %d is not the full-catalog prefix", i)
		}
	}
}

func TestLoad_QuickSubsetCoversAllDimensions(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	seen := make(map[string]bool)
	for _, q := range cat.Questions(models.ModeQuick) {
		for _, opt := range q.Options {
			for trait := range opt.Weights {
				seen[trait] = true
			}
		}
	}
	for _, pair := range models.TraitPairs {
		if !seen[pair[0]] || !seen[pair[1]] {
			t.Errorf("quick subset does not cover dimension %s/%s", pair[0], pair[1])
		}
	}
}

func TestLoad_EveryOptionWeighted(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, q := range cat.Questions(models.ModeFull) {
		if len(q.Options) < 2 {
			t.Errorf("question %d has fewer than 2 options", i)
		}
		for j, opt := range q.Options {
			if len(opt.Weights) == 0 {
				t.Errorf("question %d option %d has no trait weights", i, j)
			}
		}
	}
}

func TestLoad_ProfileLookup(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, ok := cat.Profile("ENFP")
	if !ok {
		t.Fatal("expected ENFP profile present")
	}
	if p.Name == "" || p.Description == "" {
		t.Errorf("expected populated profile, got %+v", p)
	}
	if _, ok := cat.Profile("XXXX"); ok {
		t.Error("expected unknown code to miss")
	}
}

func TestLoad_MissingOverrideFile(t *testing.T) {
	if _, err := Load(WithQuestionsFile("/nonexistent/questions.json")); err == nil {
		t.Error("expected error for missing questions file")
	}
	if _, err := Load(WithProfilesFile("/nonexistent/profiles.json")); err == nil {
		t.Error("expected error for missing profiles file")
	}
}
