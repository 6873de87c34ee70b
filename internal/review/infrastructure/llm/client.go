// Package llm turns review prompts into prose through an OpenAI-compatible
// chat completions API. DeepSeek is the default endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

const (
	// DefaultMaxTokens caps the length of a review.
	DefaultMaxTokens = 800
	// DefaultTemperature is the sampling temperature.
	DefaultTemperature = 0.7
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm returned an empty completion")

// completions is the part of the OpenAI SDK the client uses.
type completions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Client implements domain.ChatClient.
type Client struct {
	completions completions
	cfg         Config
	logger      *slog.Logger
}

var _ domain.ChatClient = (*Client)(nil)

// NewClient creates a chat client for cfg.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	sdk := openai.NewClient(opts...)
	return newClient(&sdk.Chat.Completions, cfg, logger), nil
}

func newClient(c completions, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Client{completions: c, cfg: cfg, logger: logger}
}

// Complete sends one system and one user message and returns the first
// choice's text.
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
		Temperature: openai.Float(c.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", c.cfg.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	c.logger.DebugContext(ctx, "chat completion received",
		"model", c.cfg.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return text, nil
}
