package language

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{" pt ", "pt"},
		{"eng", "en"},
		{"por", "pt"},
		{"pt_BR", "pt-BR"},
		{"english", "en"},
		{"Portuguese", "pt"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "  ", "not a language", "und"} {
		if _, err := Normalize(input); err == nil {
			t.Errorf("Normalize(%q) expected error", input)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got, err := NormalizeList([]string{"en", "PT", "eng", "pt"})
	if err != nil {
		t.Fatalf("NormalizeList: %v", err)
	}
	if strings.Join(got, ",") != "en,pt" {
		t.Fatalf("NormalizeList = %v", got)
	}
	if _, err := NormalizeList([]string{"en", "??"}); err == nil {
		t.Fatal("expected error for invalid entry")
	}
}

func TestToISO3(t *testing.T) {
	tests := map[string]string{
		"en":    "eng",
		"pt":    "por",
		"pt-BR": "por",
		"":      "und",
		"zz!":   "und",
	}
	for input, want := range tests {
		if got := ToISO3(input); got != want {
			t.Errorf("ToISO3(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en": "English",
		"pt": "Portuguese",
		"de": "German",
		"":   "Unknown",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
	names := DisplayNames([]string{"en", "pt"})
	if strings.Join(names, ",") != "English,Portuguese" {
		t.Fatalf("DisplayNames = %v", names)
	}
}
