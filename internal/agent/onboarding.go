package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hyperjump/qadesk/internal/llm"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/quiz"
	"github.com/hyperjump/qadesk/internal/report"
	"github.com/hyperjump/qadesk/internal/store"
	"go.uber.org/zap"
)

// Onboarding defaults.
const (
	DefaultPolicyQuery = "onboarding policy"
	DefaultSafetyQuery = "safety"

	onboardingPrefix = "onboarding"
)

const checklistPrompt = `
You are a faculty onboarding assistant. Based on the following policy document excerpts,
generate a Week 1 onboarding checklist as bullet points:

%s
`

const quizPrompt = `
You are a faculty onboarding assistant. Based on the following safety document excerpts,
create a 5-question multiple-choice quiz. For each question, list
a) ... b) ... c) ... d) ..., and then at the end write: Correct Answer: <letter>

%s
`

// Onboarding generates a Week 1 checklist and a safety quiz from stored documents.
type Onboarding struct {
	retriever   Retriever
	llm         llm.Client
	reportsDir  string
	policyQuery string
	safetyQuery string
	k           int
	now         clock
	logger      *zap.Logger
}

// OnboardingOption configures an Onboarding agent.
type OnboardingOption func(*Onboarding)

// WithQueries overrides the retrieval queries. Empty values keep the defaults.
func WithQueries(policy, safety string) OnboardingOption {
	return func(o *Onboarding) {
		if policy != "" {
			o.policyQuery = policy
		}
		if safety != "" {
			o.safetyQuery = safety
		}
	}
}

// WithOnboardingLogger sets a logger.
func WithOnboardingLogger(l *zap.Logger) OnboardingOption {
	return func(o *Onboarding) { o.logger = l }
}

// NewOnboarding creates an onboarding agent.
func NewOnboarding(r Retriever, client llm.Client, reportsDir string, opts ...OnboardingOption) *Onboarding {
	o := &Onboarding{
		retriever:   r,
		llm:         client,
		reportsDir:  reportsDir,
		policyQuery: DefaultPolicyQuery,
		safetyQuery: DefaultSafetyQuery,
		k:           store.DefaultK,
		now:         nowLocal,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run builds the checklist, writes it to a spreadsheet and generates the quiz.
// It returns ErrNoContext when either retrieval comes back empty.
func (o *Onboarding) Run(ctx context.Context) (*models.OnboardingResult, error) {
	policy, err := o.excerpts(ctx, o.policyQuery)
	if err != nil {
		return nil, err
	}
	checklistText, err := o.llm.Generate(ctx, fmt.Sprintf(checklistPrompt, policy))
	if err != nil {
		return nil, fmt.Errorf("generate checklist: %w", err)
	}
	checklist := ChecklistItems(checklistText)

	safety, err := o.excerpts(ctx, o.safetyQuery)
	if err != nil {
		return nil, err
	}
	quizText, err := o.llm.Generate(ctx, fmt.Sprintf(quizPrompt, safety))
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	items := quiz.Parse(quizText)
	if items == nil {
		items = []models.QuizItem{}
	}

	filename := report.Filename(onboardingPrefix, o.now())
	path := filepath.Join(o.reportsDir, filename)
	if err := report.WriteChecklist(path, checklist); err != nil {
		return nil, fmt.Errorf("write checklist: %w", err)
	}
	o.logger.Info("onboarding checklist written",
		zap.String("path", path),
		zap.Int("checklist_items", len(checklist)),
		zap.Int("quiz_items", len(items)))
	return &models.OnboardingResult{Filename: filename, Checklist: checklist, Quiz: items}, nil
}

func (o *Onboarding) excerpts(ctx context.Context, query string) (string, error) {
	chunks, err := o.retriever.Retrieve(ctx, query, o.k)
	if errors.Is(err, store.ErrEmptyIndex) {
		return "", fmt.Errorf("%w for %q: %w", ErrNoContext, query, err)
	}
	if err != nil {
		return "", fmt.Errorf("retrieve %q: %w", query, err)
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w for %q", ErrNoContext, query)
	}
	return JoinExcerpts(chunks), nil
}

// ChecklistItems splits generated text into checklist entries: non-empty lines
// with leading dashes, asterisks and spaces removed.
func ChecklistItems(text string) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item := strings.TrimSpace(strings.TrimLeft(line, "-* "))
		items = append(items, item)
	}
	return items
}
