// Package prayer implements the prayer-request extraction pipeline.
//
// Free-text messages from the prayer channel are summarized into a single
// sentence by the generation service. The model signals "nothing to extract"
// with a literal sentinel token; transport failures are retried a bounded
// number of times and an exhausted pipeline persists nothing.
package prayer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harborlight-labs/shepherd/internal/genai"
	"github.com/harborlight-labs/shepherd/internal/models"
	"github.com/harborlight-labs/shepherd/internal/retry"
)

// Sentinel is the literal token the model returns when the message contains
// no prayer request.
const Sentinel = "NO_PRAYER"

// Fixed pipeline parameters.
const (
	maxAttempts = 2
	backoff     = 2 * time.Second
	callTimeout = 10 * time.Second
	temperature = 0.3
	maxTokens   = 100
)

// Status tags an extraction result.
type Status int

const (
	// StatusExtracted means Sentence holds the summarized request.
	StatusExtracted Status = iota
	// StatusNoContent means the message contained no extractable request.
	StatusNoContent
	// StatusFailed means all attempts failed; nothing may be persisted.
	StatusFailed
)

// Result is the outcome of one extraction.
type Result struct {
	Status   Status
	Sentence string
	Err      error
}

// Completer is the slice of the GenAI client the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req genai.Request) (string, error)
}

// Extractor runs prayer extraction with bounded retries.
type Extractor struct {
	client Completer
	policy retry.Policy
	now    func() time.Time
}

// NewExtractor creates an extraction pipeline over the given completer.
func NewExtractor(client Completer) *Extractor {
	return &Extractor{
		client: client,
		policy: retry.Policy{MaxAttempts: maxAttempts, Backoff: retry.FixedBackoff(backoff)},
		now:    time.Now,
	}
}

// Extract summarizes the prayer request in rawText, if any. Empty or
// whitespace-only input short-circuits to NoContent without calling the
// generation service.
func (e *Extractor) Extract(ctx context.Context, rawText string) Result {
	if strings.TrimSpace(rawText) == "" {
		slog.Debug("prayer extraction skipped for empty message")
		return Result{Status: StatusNoContent}
	}

	prompt := buildPrompt(rawText)

	sentence, err := retry.Do(ctx, e.policy, func(ctx context.Context, attempt int) (string, error) {
		slog.Debug("prayer extraction attempt", "attempt", attempt)
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		return e.client.Complete(callCtx, genai.Request{
			User:        prompt,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
	})
	if err != nil {
		slog.Error("prayer extraction exhausted", "error", err, "message_preview", preview(rawText))
		return Result{Status: StatusFailed, Err: fmt.Errorf("prayer extraction: %w", err)}
	}

	sentence = strings.TrimSpace(sentence)
	if sentence == "" || strings.EqualFold(sentence, Sentinel) {
		slog.Debug("no prayer detected", "message_preview", preview(rawText))
		return Result{Status: StatusNoContent}
	}

	slog.Info("prayer extracted", "sentence", sentence)
	return Result{Status: StatusExtracted, Sentence: sentence}
}

// BuildRecord assembles the persistent record for a successful extraction.
func (e *Extractor) BuildRecord(ev models.MessageEvent, sentence string) models.PrayerRecord {
	return models.PrayerRecord{
		ID:         uuid.NewString(),
		MessageID:  ev.MessageID,
		AuthorID:   ev.AuthorID,
		AuthorName: ev.AuthorName,
		ChannelID:  ev.ChannelID,
		RawMessage: ev.Content,
		Extracted:  sentence,
		PostedAt:   ev.PostedAt,
		RecordedAt: e.now().UTC(),
	}
}

func buildPrompt(messageText string) string {
	return fmt.Sprintf(`Extract the core prayer request from this message.
Return only the prayer need in one concise sentence.
If no prayer request exists, return '%s'.

Message: %s`, Sentinel, messageText)
}

func preview(s string) string {
	const limit = 50
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
