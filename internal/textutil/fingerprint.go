package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTokenRunes = 3

// Fingerprint is a term-frequency vector.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint returns nil when text yields no tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit, dropping tokens shorter than three runes.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, token := range fields {
		if utf8.RuneCountInString(token) < minTokenRunes {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of unique tokens.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}
