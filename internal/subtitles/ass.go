package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/fileutil"
)

// alignments maps config names to ASS numpad alignment codes.
var alignments = map[string]int{
	"bottom_left":   1,
	"bottom_center": 2,
	"bottom_right":  3,
	"middle_left":   4,
	"middle_center": 5,
	"middle_right":  6,
	"top_left":      7,
	"top_center":    8,
	"top_right":     9,
}

// Style is the single "Default" style every event uses.
type Style struct {
	FontName     string
	FontSize     float64
	Primary      config.RGBA
	Secondary    config.RGBA
	Outline      config.RGBA
	Back         config.RGBA
	Bold         bool
	Italic       bool
	Underline    bool
	StrikeOut    bool
	ScaleX       float64
	ScaleY       float64
	Spacing      float64
	Angle        float64
	BorderStyle  int
	OutlineWidth float64
	Shadow       float64
	Alignment    int
	MarginL      int
	MarginR      int
	MarginV      int
}

// StyleFromConfig converts the [subtitles] section.
func StyleFromConfig(cfg config.Subtitles) (Style, error) {
	alignment, ok := alignments[cfg.Alignment]
	if !ok {
		return Style{}, fmt.Errorf("subtitles: unknown alignment %q", cfg.Alignment)
	}
	style := Style{
		FontName:     cfg.FontName,
		FontSize:     cfg.FontSize,
		Bold:         cfg.Bold,
		Italic:       cfg.Italic,
		Underline:    cfg.Underline,
		StrikeOut:    cfg.StrikeOut,
		ScaleX:       cfg.ScaleX,
		ScaleY:       cfg.ScaleY,
		Spacing:      cfg.Spacing,
		Angle:        cfg.Angle,
		BorderStyle:  cfg.BorderStyle,
		OutlineWidth: cfg.Outline,
		Shadow:       cfg.Shadow,
		Alignment:    alignment,
		MarginL:      cfg.MarginL,
		MarginR:      cfg.MarginR,
		MarginV:      cfg.MarginV,
	}
	colors := []struct {
		key string
		raw string
		dst *config.RGBA
	}{
		{"primarycolor", cfg.PrimaryColor, &style.Primary},
		{"secondarycolor", cfg.SecondaryColor, &style.Secondary},
		{"outlinecolor", cfg.OutlineColor, &style.Outline},
		{"backcolor", cfg.BackColor, &style.Back},
	}
	for _, c := range colors {
		parsed, err := config.ParseColor(c.raw)
		if err != nil {
			return Style{}, fmt.Errorf("subtitles.%s: %w", c.key, err)
		}
		*c.dst = parsed
	}
	return style, nil
}

// Render writes a complete ASS script.
func Render(w io.Writer, style Style, cues []Cue) error {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("; Script generated by reelforge\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("Collisions: Normal\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%s,%s,%s,%s,%s,%d,%d,%d,%d,%s,%s,%s,%s,%d,%s,%s,%d,%d,%d,%d,1\n\n",
		style.FontName, number(style.FontSize),
		colour(style.Primary), colour(style.Secondary), colour(style.Outline), colour(style.Back),
		flag(style.Bold), flag(style.Italic), flag(style.Underline), flag(style.StrikeOut),
		number(style.ScaleX), number(style.ScaleY), number(style.Spacing), number(style.Angle),
		style.BorderStyle, number(style.OutlineWidth), number(style.Shadow),
		style.Alignment, style.MarginL, style.MarginR, style.MarginV,
	)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range cues {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			timestamp(cue.Start), timestamp(cue.End), eventText(cue.Text))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the script to path atomically.
func WriteFile(path string, style Style, cues []Cue) error {
	if len(cues) == 0 {
		return fmt.Errorf("subtitles: no cues for %s", path)
	}
	var buf bytes.Buffer
	if err := Render(&buf, style, cues); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}

// colour encodes &HAABBGGRR.
func colour(c config.RGBA) string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", c.A, c.B, c.G, c.R)
}

func flag(v bool) int {
	if v {
		return -1
	}
	return 0
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// timestamp formats H:MM:SS.cc, rounding to centiseconds.
func timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int64(math.Round(seconds * 100))
	h := cs / 360000
	m := (cs / 6000) % 60
	s := (cs / 100) % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

func eventText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", `\N`)
}
