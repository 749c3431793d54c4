// Package llm provides the language-model client used for answers, checklists and quizzes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client generates a completion for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when the model returns no choices.
var ErrEmptyResponse = errors.New("language model returned no choices")

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint such as Ollama's /v1.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithLogger sets a logger for request failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *OpenAIClient) { c.logger = l }
}

// WithMaxTokens limits the completion length. Zero leaves it to the server.
func WithMaxTokens(n int) Option {
	return func(c *OpenAIClient) { c.maxTokens = n }
}

// WithTimeout bounds each Generate call.
func WithTimeout(d time.Duration) Option {
	return func(c *OpenAIClient) { c.timeout = d }
}

// NewOpenAIClient creates a client for model at baseURL. apiKey may be empty for local servers.
func NewOpenAIClient(baseURL, apiKey, model string, opts ...Option) (*OpenAIClient, error) {
	if model == "" {
		return nil, errors.New("llm model not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	c := &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate sends prompt as a single user message and returns the trimmed reply.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Warn("llm request failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("llm request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("llm completion",
		zap.String("model", c.model),
		zap.Int("prompt_chars", len(prompt)),
		zap.Duration("elapsed", time.Since(start)))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
