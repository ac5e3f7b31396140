package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harborlight-labs/shepherd/internal/assessment"
	"github.com/harborlight-labs/shepherd/internal/messaging"
	"github.com/harborlight-labs/shepherd/internal/models"
)

const (
	// answerIDPrefix namespaces assessment buttons in component custom IDs.
	answerIDPrefix = "pq"

	// messageLimit keeps chunks safely under the platform's 2000-char cap.
	messageLimit = 1900
)

// answerID encodes a question/option pair into a component custom ID.
func answerID(questionIndex, optionIndex int) string {
	return fmt.Sprintf("%s:%d:%d", answerIDPrefix, questionIndex, optionIndex)
}

// parseAnswerID decodes an assessment custom ID. Returns ok=false for any
// custom ID this bot did not produce.
func parseAnswerID(customID string) (questionIndex, optionIndex int, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != answerIDPrefix {
		return 0, 0, false
	}
	q, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	o, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return q, o, true
}

// optionLabel maps option index 0,1,2... to A,B,C...
func optionLabel(i int) string {
	return string(rune('A' + i))
}

// formatQuestion renders one question with lettered options and one button
// per option. The intro header is only attached to the first question.
func formatQuestion(q models.Question, index, total int, mode models.Mode, intro bool) messaging.Message {
	var b strings.Builder
	if intro {
		name := "Personality Test"
		if mode == models.ModeQuick {
			name = "Quick Personality Test"
		}
		fmt.Fprintf(&b, "🧭 **%s** (%d questions)\n", name, total)
		b.WriteString("Answer each question by clicking the button that fits you best.\n\n")
	}

	fmt.Fprintf(&b, "**Question %d/%d**\n%s\n", index+1, total, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%s) %s", optionLabel(i), opt.Text)
	}

	buttons := make([]messaging.Button, 0, len(q.Options))
	for i := range q.Options {
		buttons = append(buttons, messaging.Button{
			Label:    optionLabel(i),
			CustomID: answerID(index, i),
		})
	}

	return messaging.Message{Content: b.String(), Buttons: buttons}
}

// formatFinal renders the completed assessment result.
func formatFinal(final assessment.Final) messaging.Message {
	var b strings.Builder
	b.WriteString("🎉 **Test complete!**\n\n")
	fmt.Fprintf(&b, "Your type: **%s — %s**\n\n%s", final.Code, final.Profile.Name, final.Profile.Description)
	return messaging.Message{Content: b.String()}
}

// formatWeekRange renders a Monday-to-Sunday window for list headers.
func formatWeekRange(start, end time.Time) string {
	return start.Format("Jan 2") + " – " + end.Format("Jan 2, 2006")
}

// formatPrayerList renders the weekly prayer list as one or more chunks, each
// under the platform message limit. Entries are never split across chunks.
func formatPrayerList(weekRange string, prayers []models.PrayerRecord) []string {
	header := fmt.Sprintf("🙏 **Prayers for %s** (%d total)\n", weekRange, len(prayers))

	var chunks []string
	var b strings.Builder
	b.WriteString(header)

	for _, p := range prayers {
		line := fmt.Sprintf("\n• **%s** (%s): %s", p.AuthorName, p.PostedAt.UTC().Format("Mon Jan 2"), p.Extracted)
		if b.Len() > 0 && b.Len()+len(line) > messageLimit {
			chunks = append(chunks, b.String())
			b.Reset()
			line = strings.TrimPrefix(line, "\n")
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
