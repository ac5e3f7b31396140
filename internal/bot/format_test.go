package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/harborlight-labs/shepherd/internal/models"
)

func TestParseAnswerID(t *testing.T) {
	cases := []struct {
		in     string
		wantQ  int
		wantO  int
		wantOK bool
	}{
		{"pq:0:0", 0, 0, true},
		{"pq:12:3", 12, 3, true},
		{"pq:x:1", 0, 0, false},
		{"pq:1", 0, 0, false},
		{"other:1:2", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		q, o, ok := parseAnswerID(tc.in)
		if ok != tc.wantOK || q != tc.wantQ || o != tc.wantO {
			t.Errorf("parseAnswerID(%q) = (%d, %d, %v), want (%d, %d, %v)", tc.in, q, o, ok, tc.wantQ, tc.wantO, tc.wantOK)
		}
	}
}

func TestAnswerIDRoundTrip(t *testing.T) {
	q, o, ok := parseAnswerID(answerID(7, 2))
	if !ok || q != 7 || o != 2 {
		t.Errorf("round trip got (%d, %d, %v)", q, o, ok)
	}
}

func TestFormatQuestion_IntroOnlyOnFirst(t *testing.T) {
	q := models.Question{Text: "Facts or ideas?", Options: []models.Option{
		{Text: "Facts"}, {Text: "Ideas"},
	}}

	first := formatQuestion(q, 0, 5, models.ModeQuick, true)
	if !strings.Contains(first.Content, "Quick Personality Test") {
		t.Errorf("expected intro header, got %q", first.Content)
	}
	if !strings.Contains(first.Content, "A) Facts") || !strings.Contains(first.Content, "B) Ideas") {
		t.Errorf("expected lettered options, got %q", first.Content)
	}

	later := formatQuestion(q, 2, 5, models.ModeQuick, false)
	if strings.Contains(later.Content, "Personality Test") {
		t.Errorf("expected no intro on later questions, got %q", later.Content)
	}
	if !strings.Contains(later.Content, "Question 3/5") {
		t.Errorf("expected numbering, got %q", later.Content)
	}
	if len(later.Buttons) != 2 || later.Buttons[1].CustomID != "pq:2:1" {
		t.Errorf("unexpected buttons: %+v", later.Buttons)
	}
}

func TestFormatPrayerList_ChunksUnderLimit(t *testing.T) {
	long := strings.Repeat("pray for strength during a hard season ", 8)
	var prayers []models.PrayerRecord
	for i := 0; i < 20; i++ {
		prayers = append(prayers, models.PrayerRecord{
			AuthorName: "sam",
			Extracted:  long,
			PostedAt:   time.Date(2025, 10, 7, 9, 0, 0, 0, time.UTC),
		})
	}

	chunks := formatPrayerList("Oct 6 – Oct 12, 2025", prayers)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > messageLimit {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c))
		}
	}
	if !strings.Contains(chunks[0], "Prayers for Oct 6") {
		t.Errorf("expected header in first chunk, got %q", chunks[0][:80])
	}

	total := 0
	for _, c := range chunks {
		total += strings.Count(c, "• **sam**")
	}
	if total != len(prayers) {
		t.Errorf("expected all %d entries across chunks, got %d", len(prayers), total)
	}
}
