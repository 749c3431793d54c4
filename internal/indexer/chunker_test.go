package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{"empty", "", 10, nil},
		{"blank", "   \n\t  ", 10, nil},
		{"shorter than size", "Hello there.", 50, []string{"Hello there."}},
		{"splits after last period", "Aaa. Bbb. Ccc dd", 12, []string{"Aaa. Bbb.", "Ccc dd"}},
		{"hard split without period", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"period at window start ignored", ".abcdefg", 4, []string{".abc", "defg"}},
		{"drops blank windows", "Hi.     Yo.", 4, []string{"Hi.", "Yo."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("Split(%q, %d) = %q, want %q", tt.text, tt.size, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplit_reconstructsInput(t *testing.T) {
	texts := []string{
		"The quick brown fox. Jumps over the lazy dog. And then. Some more text without an end",
		strings.Repeat("no periods at all here ", 40),
		"Ünïcödé sentences. Ñandú runs fast. 東京は大きい。 More text. End",
		"...........",
	}
	for _, text := range texts {
		for _, size := range []int{1, 3, 7, 20, 500} {
			ws := windows(text, size)
			if got := strings.Join(ws, ""); got != text {
				t.Errorf("windows(size=%d) do not reconstruct input:\n got %q\nwant %q", size, got, text)
			}
			for _, w := range ws {
				if n := utf8.RuneCountInString(w); n > size || n == 0 {
					t.Errorf("window %q has %d runes, size %d", w, n, size)
				}
			}
			for _, c := range Split(text, size) {
				if utf8.RuneCountInString(c) > size {
					t.Errorf("chunk %q exceeds size %d", c, size)
				}
				if c != strings.TrimSpace(c) || c == "" {
					t.Errorf("chunk %q is not trimmed and non-empty", c)
				}
			}
		}
	}
}

func TestSplit_endsAtPeriodWhenAvailable(t *testing.T) {
	text := "One sentence here. Another sentence follows. Final words"
	chunks := Split(text, 30)
	for _, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %q should end with a period", c)
		}
	}
}

func TestNewChunker_defaultSize(t *testing.T) {
	if got := NewChunker(0).Size(); got != DefaultChunkSize {
		t.Errorf("Size() = %d, want %d", got, DefaultChunkSize)
	}
	if got := len(Split(strings.Repeat("x", 1200), -1)); got != 3 {
		t.Errorf("non-positive size should fall back to default, got %d chunks", got)
	}
}

func TestNormalizePage(t *testing.T) {
	decomposed := "Cafe\u0301\nmenu\r\nline"
	if got, want := NormalizePage(decomposed), "Caf\u00e9 menu line"; got != want {
		t.Errorf("NormalizePage() = %q, want %q", got, want)
	}
	if got := JoinPages([]string{"a\nb", "", "c"}); got != "a bc" {
		t.Errorf("JoinPages() = %q", got)
	}
}
