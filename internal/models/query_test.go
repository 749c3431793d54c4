package models

import (
	"errors"
	"testing"
)

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       *QueryRequest
		wantErr   bool
		wantAgent string
	}{
		{"empty question", &QueryRequest{Question: "   "}, true, ""},
		{"valid question", &QueryRequest{Question: "hello"}, false, ""},
		{"agent without type", &QueryRequest{UseAgent: true}, true, ""},
		{"agent without question", &QueryRequest{UseAgent: true, AgentType: "analyzer"}, false, "analyzer"},
		{"agent type normalized", &QueryRequest{UseAgent: true, AgentType: " Onboarding "}, false, "onboarding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() error = %v, want ErrInvalidRequest", err)
			}
			if !tt.wantErr && tt.req.AgentType != tt.wantAgent {
				t.Errorf("AgentType = %q, want %q", tt.req.AgentType, tt.wantAgent)
			}
		})
	}
}

func TestDocument_Contains(t *testing.T) {
	d := &Document{FirstChunk: 3, ChunkCount: 2}
	for pos, want := range map[int]bool{2: false, 3: true, 4: true, 5: false} {
		if got := d.Contains(pos); got != want {
			t.Errorf("Contains(%d) = %v, want %v", pos, got, want)
		}
	}
}

func TestQueryResponse_Body(t *testing.T) {
	if b, ok := (&QueryResponse{Answer: "x"}).Body().(map[string]string); !ok || b["answer"] != "x" {
		t.Errorf("answer body = %#v", b)
	}
	rep := &AnalysisReport{IssuesFound: 2}
	if b := (&QueryResponse{Analysis: rep}).Body(); b != rep {
		t.Errorf("analysis body = %#v", b)
	}
	ob := &OnboardingResult{Filename: "f.xlsx"}
	if b := (&QueryResponse{Onboarding: ob}).Body(); b != ob {
		t.Errorf("onboarding body = %#v", b)
	}
}
