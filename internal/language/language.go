package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// wordForms maps English language names users commonly type in idea files or
// config to their BCP 47 base.
var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

func parse(code string) (xlanguage.Tag, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return xlanguage.Und, fmt.Errorf("language: empty code")
	}
	if base, ok := wordForms[trimmed]; ok {
		trimmed = base
	}
	tag, err := xlanguage.Parse(trimmed)
	if err != nil {
		return xlanguage.Und, fmt.Errorf("language: %q: %w", code, err)
	}
	if tag == xlanguage.Und {
		return xlanguage.Und, fmt.Errorf("language: %q is undetermined", code)
	}
	return tag, nil
}

// Normalize converts a code, ISO 639-2 code, or English name into its
// canonical BCP 47 form ("eng" -> "en", "pt_BR" -> "pt-BR").
func Normalize(code string) (string, error) {
	tag, err := parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// NormalizeList normalizes and deduplicates codes, preserving order.
func NormalizeList(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized, err := Normalize(code)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

// ToISO3 returns the ISO 639-2 code used in container metadata. Unknown input
// yields "und".
func ToISO3(code string) string {
	tag, err := parse(code)
	if err != nil {
		return "und"
	}
	base, _ := tag.Base()
	if iso3 := base.ISO3(); iso3 != "" {
		return iso3
	}
	return "und"
}

// DisplayName returns the English name of a language ("pt" -> "Portuguese").
// Unrecognized input is returned upper-cased.
func DisplayName(code string) string {
	tag, err := parse(code)
	if err != nil {
		if strings.TrimSpace(code) == "" {
			return "Unknown"
		}
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// DisplayNames maps DisplayName over codes.
func DisplayNames(codes []string) []string {
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = DisplayName(code)
	}
	return out
}
