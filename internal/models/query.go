package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Agent types accepted by QueryRequest.AgentType.
const (
	AgentAnalyzer   = "analyzer"
	AgentOnboarding = "onboarding"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question  string `json:"question"`
	UseAgent  bool   `json:"use_agent"`
	AgentType string `json:"agent_type,omitempty"`
}

// Validate checks the request and normalizes AgentType to lower case.
// A question is required unless an agent is requested.
func (q *QueryRequest) Validate() error {
	q.Question = strings.TrimSpace(q.Question)
	q.AgentType = strings.ToLower(strings.TrimSpace(q.AgentType))
	if !q.UseAgent && q.Question == "" {
		return fmt.Errorf("%w: question cannot be empty", ErrInvalidRequest)
	}
	if q.UseAgent && q.AgentType == "" {
		return fmt.Errorf("%w: agent_type is required when use_agent is true", ErrInvalidRequest)
	}
	return nil
}

// QueryResponse is the body returned by POST /query.
// Exactly one of Answer, Analysis or Onboarding is set.
type QueryResponse struct {
	Answer     string            `json:"answer,omitempty"`
	Analysis   *AnalysisReport   `json:"analysis,omitempty"`
	Onboarding *OnboardingResult `json:"onboarding,omitempty"`
}

// Body returns the JSON body for the response: the agent result itself, or {"answer": ...}.
func (r *QueryResponse) Body() any {
	switch {
	case r.Analysis != nil:
		return r.Analysis
	case r.Onboarding != nil:
		return r.Onboarding
	default:
		return map[string]string{"answer": r.Answer}
	}
}
