// Package quiz recovers multiple-choice quiz items from free-form generated text.
//
// The parser is tolerant: lines it does not recognise are dropped and it never fails.
package quiz

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/qadesk/internal/models"
)

var (
	questionRe = regexp.MustCompile(`^\d+[.)]\s*(.+)`)
	optionRe   = regexp.MustCompile(`(?i)^([abcd])\)\s*(.+)`)
	answerRe   = regexp.MustCompile(`(?i)^(?:Correct\s+Answer|Answer)\s*[:\-]\s*([abcd])`)
)

// Parse returns the quiz items found in text in order of first appearance.
//
// A numbered line ("1. ..." or "1) ...") opens a question, lettered lines
// ("a) ..." to "d) ...") add options to the open question, and an
// "Answer: x" or "Correct Answer: x" line selects the correct option by letter.
// A letter without a matching option records an empty answer.
func Parse(text string) []models.QuizItem {
	var (
		items []models.QuizItem
		cur   *models.QuizItem
	)
	flush := func() {
		if cur == nil {
			return
		}
		if cur.Options == nil {
			cur.Options = []string{}
		}
		items = append(items, *cur)
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := questionRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &models.QuizItem{Question: strings.TrimSpace(m[1])}
			continue
		}
		if cur == nil {
			continue
		}
		if m := optionRe.FindStringSubmatch(line); m != nil {
			cur.Options = append(cur.Options, strings.TrimSpace(m[2]))
			continue
		}
		if m := answerRe.FindStringSubmatch(line); m != nil {
			i := Index(m[1])
			if i >= 0 && i < len(cur.Options) {
				cur.Answer = cur.Options[i]
			} else {
				cur.Answer = ""
			}
		}
	}
	flush()
	return items
}

// Format writes items in the layout Parse reads. Parse(Format(items)) returns
// items unchanged when questions and options are non-empty trimmed single lines,
// each item has at most four options, and its answer is empty or one of its options.
func Format(items []models.QuizItem) string {
	var b strings.Builder
	for n, item := range items {
		if n > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(n + 1))
		b.WriteString(". ")
		b.WriteString(item.Question)
		b.WriteByte('\n')
		for i, opt := range item.Options {
			b.WriteString(Letter(i))
			b.WriteString(") ")
			b.WriteString(opt)
			b.WriteByte('\n')
		}
		if letter := AnswerLetter(item); letter != "" {
			b.WriteString("Answer: ")
			b.WriteString(letter)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Letter returns the option letter for index i ("a" for 0), or "" outside a to d.
func Letter(i int) string {
	if i < 0 || i > 3 {
		return ""
	}
	return string(rune('a' + i))
}

// Index returns the option index for letter ("a" is 0), or -1 when letter is not a to d.
func Index(letter string) int {
	l := strings.ToLower(strings.TrimSpace(letter))
	if len(l) != 1 || l[0] < 'a' || l[0] > 'd' {
		return -1
	}
	return int(l[0] - 'a')
}

// AnswerLetter returns the letter of item's correct option, or "" when unknown.
func AnswerLetter(item models.QuizItem) string {
	if item.Answer == "" {
		return ""
	}
	for i, opt := range item.Options {
		if opt == item.Answer {
			return Letter(i)
		}
	}
	return ""
}
