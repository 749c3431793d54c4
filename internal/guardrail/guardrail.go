// Package guardrail rejects questions that contain blocked terms.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"
)

// BannedTermError reports the first blocked term found in a question.
type BannedTermError struct {
	Term string
}

func (e *BannedTermError) Error() string {
	return fmt.Sprintf("query contains banned term: %s", e.Term)
}

type rule struct {
	term string
	re   *regexp.Regexp
}

// Checker matches questions against a block list, case-insensitively and on
// whole words only ("class" does not match "classified").
type Checker struct {
	rules []rule
}

// NewChecker compiles terms. Blank terms are ignored.
func NewChecker(terms []string) *Checker {
	c := &Checker{}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		c.rules = append(c.rules, rule{
			term: t,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`),
		})
	}
	return c
}

// Check returns a *BannedTermError for the first term, in list order, found in q.
func (c *Checker) Check(q string) error {
	if c == nil {
		return nil
	}
	for _, r := range c.rules {
		if r.re.MatchString(q) {
			return &BannedTermError{Term: r.term}
		}
	}
	return nil
}

// Terms returns the active block list. A nil Checker has none.
func (c *Checker) Terms() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.term
	}
	return out
}
