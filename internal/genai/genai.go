// Package genai wraps chat completions against an OpenAI-compatible service.
//
// The production deployment points the base URL at the xAI endpoint; tests
// inject a mock chat service. The client performs a single call per request
// and carries no retry logic of its own.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default model parameters, overridable per client and per request.
const (
	DefaultModel       = "grok-4-fast-non-reasoning"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 200
)

// ErrNoChoices indicates the service returned an empty choice list.
var ErrNoChoices = errors.New("no choices returned")

// chatService is the minimal slice of the OpenAI client used here; the real
// chat completion service satisfies it directly.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the API key, overriding the GENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL points the client at an alternate OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel sets the default model for requests that do not name one.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the chat completion service.
type Client struct {
	chat  chatService
	model string
}

// NewClient creates a GenAI client. The API key comes from options or the
// GENAI_API_KEY environment variable; without one the client cannot be built.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	cli := openai.NewClient(reqOpts...)
	slog.Debug("GenAI client created", "model", cfg.Model, "base_url_set", cfg.BaseURL != "")
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model}, nil
}

// Request describes a single completion call. Zero-valued parameters fall
// back to the client/package defaults.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Complete performs one chat completion and returns the raw response text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		slog.Debug("GenAI completion failed", "model", model, "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("GenAI completion succeeded", "model", model, "response_len", len(content))
	return content, nil
}
