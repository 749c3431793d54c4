package indexer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Normalize returns text in Unicode NFC form.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// NormalizePage prepares one page of extracted text: NFC form, newlines replaced by spaces.
func NormalizePage(text string) string {
	return newlineReplacer.Replace(Normalize(text))
}

// JoinPages normalizes each page and concatenates them in order.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(NormalizePage(p))
	}
	return b.String()
}
