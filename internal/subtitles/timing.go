package subtitles

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cue is one subtitle event; times are seconds from the start of the clip.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// SplitSentences breaks text at runs of spaces that follow ".", ",", "!"
// or "?". Pieces are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	add := func(piece []rune) {
		if trimmed := strings.TrimSpace(string(piece)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	start := 0
	for i := 1; i < len(runes); i++ {
		if runes[i] != ' ' || !isBreak(runes[i-1]) {
			continue
		}
		j := i
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		add(runes[start:i])
		start = j
		i = j - 1
	}
	add(runes[start:])
	return out
}

func isBreak(r rune) bool {
	return r == '.' || r == ',' || r == '!' || r == '?'
}

// Proportional spreads the sentences of text over duration seconds. Each
// character of the full text gets the same share of time.
func Proportional(text string, duration float64) ([]Cue, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("subtitle duration must be positive, got %v", duration)
	}
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return nil, fmt.Errorf("no text to subtitle")
	}
	perRune := duration / float64(total)

	sentences := SplitSentences(text)
	cues := make([]Cue, 0, len(sentences))
	start := 0.0
	for _, sentence := range sentences {
		end := start + perRune*float64(utf8.RuneCountInString(sentence))
		cues = append(cues, Cue{Start: start, End: end, Text: sentence})
		start = end
	}
	return cues, nil
}
