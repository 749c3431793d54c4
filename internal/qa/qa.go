// Package qa answers questions from stored documents and dispatches agent requests.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/qadesk/internal/agent"
	"github.com/hyperjump/qadesk/internal/guardrail"
	"github.com/hyperjump/qadesk/internal/llm"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/store"
	"go.uber.org/zap"
)

// ErrUnknownAgent is returned for an agent type other than analyzer or onboarding.
var ErrUnknownAgent = errors.New("agent_type must be 'analyzer' or 'onboarding'")

// AnswerK is the number of excerpts put into an answer prompt.
const AnswerK = store.DefaultK

// Engine answers questions with retrieved excerpts and runs the agents.
type Engine struct {
	retriever  agent.Retriever
	llm        llm.Client
	guard      *guardrail.Checker
	analyzer   *agent.Analyzer
	onboarding *agent.Onboarding
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithGuardrail rejects questions containing blocked terms.
func WithGuardrail(c *guardrail.Checker) Option {
	return func(e *Engine) { e.guard = c }
}

// WithAgents enables the analyzer and onboarding agents. Either may be nil.
func WithAgents(a *agent.Analyzer, o *agent.Onboarding) Option {
	return func(e *Engine) {
		e.analyzer = a
		e.onboarding = o
	}
}

// NewEngine creates an engine.
func NewEngine(r agent.Retriever, client llm.Client, opts ...Option) *Engine {
	e := &Engine{retriever: r, llm: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildPrompt returns the answer prompt for question over chunks.
func BuildPrompt(question string, chunks []models.Chunk) string {
	var b strings.Builder
	b.WriteString("Use only these excerpts to answer the question:\n\n")
	b.WriteString(agent.JoinExcerpts(chunks))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// Ask checks the question against the guardrail, retrieves excerpts and returns
// the model's trimmed answer. Returns store.ErrEmptyIndex before any ingestion.
func (e *Engine) Ask(ctx context.Context, question string) (string, error) {
	if err := e.guard.Check(question); err != nil {
		return "", err
	}
	return e.answer(ctx, question)
}

// answer is Ask without the guardrail check.
func (e *Engine) answer(ctx context.Context, question string) (string, error) {
	chunks, err := e.retriever.Retrieve(ctx, question, AnswerK)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	answer, err := e.llm.Generate(ctx, BuildPrompt(question, chunks))
	if err != nil {
		return "", fmt.Errorf("LLM error: %w", err)
	}
	e.logger.Debug("question answered", zap.Int("excerpts", len(chunks)), zap.Int("answer_chars", len(answer)))
	return strings.TrimSpace(answer), nil
}

// Query validates req, checks the question against the guardrail once and runs
// Ask or the requested agent.
func (e *Engine) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := e.guard.Check(req.Question); err != nil {
		return nil, err
	}
	if !req.UseAgent {
		answer, err := e.answer(ctx, req.Question)
		if err != nil {
			return nil, err
		}
		return &models.QueryResponse{Answer: answer}, nil
	}
	switch req.AgentType {
	case models.AgentAnalyzer:
		if e.analyzer == nil {
			return nil, ErrUnknownAgent
		}
		res, err := e.analyzer.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("analyzer: %w", err)
		}
		return &models.QueryResponse{Analysis: res}, nil
	case models.AgentOnboarding:
		if e.onboarding == nil {
			return nil, ErrUnknownAgent
		}
		res, err := e.onboarding.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("onboarding: %w", err)
		}
		return &models.QueryResponse{Onboarding: res}, nil
	default:
		return nil, ErrUnknownAgent
	}
}
