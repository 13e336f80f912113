package content

import (
	"fmt"
	"sort"
	"strings"

	"reelforge/internal/language"
	"reelforge/internal/services"
)

// Idea is the immutable payload an entity is created from.
type Idea interface {
	// LanguageCodes returns the ordered target languages (the fan-out unit).
	LanguageCodes() []string
	// Prompt returns the image generation prompt.
	Prompt() string
	// Text returns the spoken/subtitled text for a language.
	Text(code string) string
	// Caption returns the social caption for a language, if any.
	Caption(code string) string
}

// ShortVideoIdea is a narrated short with one script per language.
type ShortVideoIdea struct {
	Texts       map[string]string `json:"texts"`
	ImagePrompt string            `json:"image_prompt"`
	Captions    map[string]string `json:"captions,omitempty"`
	Languages   []string          `json:"languages"`
}

func (i *ShortVideoIdea) LanguageCodes() []string    { return append([]string(nil), i.Languages...) }
func (i *ShortVideoIdea) Prompt() string             { return i.ImagePrompt }
func (i *ShortVideoIdea) Text(code string) string    { return i.Texts[code] }
func (i *ShortVideoIdea) Caption(code string) string { return i.Captions[code] }

// normalize canonicalizes language codes in the list and the map keys, then
// checks that every language has a text and every caption has a language.
func (i *ShortVideoIdea) normalize() error {
	if len(i.Languages) == 0 {
		return invalid("languages must not be empty")
	}
	codes, err := language.NormalizeList(i.Languages)
	if err != nil {
		return invalid(err.Error())
	}
	if len(codes) != len(i.Languages) {
		return invalid("languages must be unique")
	}
	i.Languages = codes
	if strings.TrimSpace(i.ImagePrompt) == "" {
		return invalid("image_prompt must not be empty")
	}

	texts, err := normalizeKeys(i.Texts, "texts")
	if err != nil {
		return err
	}
	captions, err := normalizeKeys(i.Captions, "captions")
	if err != nil {
		return err
	}
	listed := make(map[string]bool, len(codes))
	for _, code := range codes {
		listed[code] = true
		if strings.TrimSpace(texts[code]) == "" {
			return invalid(fmt.Sprintf("texts missing language %q", code))
		}
	}
	for _, code := range sortedKeys(captions) {
		if !listed[code] {
			return invalid(fmt.Sprintf("captions has unlisted language %q", code))
		}
	}
	i.Texts = texts
	i.Captions = captions
	return nil
}

// Cue is one timed subtitle line in seconds.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// MusicVideoIdea is a clip of an existing track with its lyrics as subtitles.
// Cue times refer to AudioSource.
type MusicVideoIdea struct {
	Section     []Cue  `json:"section"`
	ImagePrompt string `json:"image_prompt"`
	CaptionText string `json:"caption"`
	Language    string `json:"language"`
	AudioSource string `json:"audio_source"`
}

func (i *MusicVideoIdea) LanguageCodes() []string { return []string{i.Language} }
func (i *MusicVideoIdea) Prompt() string          { return i.ImagePrompt }

func (i *MusicVideoIdea) Text(string) string {
	lines := make([]string, 0, len(i.Section))
	for _, cue := range i.Section {
		lines = append(lines, cue.Text)
	}
	return strings.Join(lines, " ")
}

func (i *MusicVideoIdea) Caption(string) string { return i.CaptionText }

// Offset is where the section starts in the audio source.
func (i *MusicVideoIdea) Offset() float64 {
	if len(i.Section) == 0 {
		return 0
	}
	start := i.Section[0].Start
	for _, cue := range i.Section[1:] {
		start = min(start, cue.Start)
	}
	return start
}

// Duration spans from the earliest start to the latest end.
func (i *MusicVideoIdea) Duration() float64 {
	if len(i.Section) == 0 {
		return 0
	}
	end := i.Section[0].End
	for _, cue := range i.Section[1:] {
		end = max(end, cue.End)
	}
	return end - i.Offset()
}

// Cues returns the section shifted so the first cue starts at zero, with
// line breaks converted to ASS hard breaks.
func (i *MusicVideoIdea) Cues() []Cue {
	offset := i.Offset()
	out := make([]Cue, len(i.Section))
	for n, cue := range i.Section {
		out[n] = Cue{
			Start: cue.Start - offset,
			End:   cue.End - offset,
			Text:  strings.ReplaceAll(cue.Text, "\n", `\N`),
		}
	}
	return out
}

func (i *MusicVideoIdea) normalize() error {
	if len(i.Section) == 0 {
		return invalid("section must not be empty")
	}
	for n, cue := range i.Section {
		if cue.Start < 0 || cue.End <= cue.Start {
			return invalid(fmt.Sprintf("section[%d] has invalid times %.3f-%.3f", n, cue.Start, cue.End))
		}
	}
	if strings.TrimSpace(i.ImagePrompt) == "" {
		return invalid("image_prompt must not be empty")
	}
	if strings.TrimSpace(i.AudioSource) == "" {
		return invalid("audio_source must not be empty")
	}
	if strings.TrimSpace(i.Language) == "" {
		i.Language = "en"
	}
	code, err := language.Normalize(i.Language)
	if err != nil {
		return invalid(err.Error())
	}
	i.Language = code
	return nil
}

func normalizeKeys(in map[string]string, field string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for _, key := range sortedKeys(in) {
		code, err := language.Normalize(key)
		if err != nil {
			return nil, invalid(fmt.Sprintf("%s: %v", field, err))
		}
		if _, dup := out[code]; dup {
			return nil, invalid(fmt.Sprintf("%s has duplicate language %q", field, code))
		}
		out[code] = in[key]
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func invalid(msg string) error {
	return services.Wrap(services.ErrValidation, "", "idea", msg, nil)
}
