package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Known option values shared with the packages that act on them.
var (
	CreationMethods  = []string{"static_image", "ai"}
	ExtensionMethods = []string{"loop", "ai"}
	Alignments       = []string{
		"bottom_left", "bottom_center", "bottom_right",
		"middle_left", "middle_center", "middle_right",
		"top_left", "top_center", "top_right",
	}
)

// Validate ensures the configuration is usable. Provider credentials are
// checked when providers are built so offline commands keep working.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateIdeas(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.LanguageConcurrency <= 0 {
		return errors.New("workflow.language_concurrency must be positive")
	}
	if c.Workflow.RunTimeout < 0 {
		return errors.New("workflow.run_timeout must be zero or positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if !contains(CreationMethods, c.Video.CreationMethod) {
		return fmt.Errorf("video.creation_method: unsupported value %q (want %s)", c.Video.CreationMethod, strings.Join(CreationMethods, " or "))
	}
	if !contains(ExtensionMethods, c.Video.ExtensionMethod) {
		return fmt.Errorf("video.extension_method: unsupported value %q (want %s)", c.Video.ExtensionMethod, strings.Join(ExtensionMethods, " or "))
	}
	if c.Video.StaticDuration <= 0 {
		return errors.New("video.static_duration must be positive")
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SilenceDuration < 0 {
		return errors.New("audio.silence_duration must be zero or positive")
	}
	if c.Audio.RelativeVolume < 0 || c.Audio.RelativeVolume > 2 {
		return errors.New("audio.relative_volume must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if !contains(Alignments, c.Subtitles.Alignment) {
		return fmt.Errorf("subtitles.alignment: unsupported value %q", c.Subtitles.Alignment)
	}
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.fontsize must be positive")
	}
	colors := map[string]string{
		"subtitles.primarycolor":   c.Subtitles.PrimaryColor,
		"subtitles.secondarycolor": c.Subtitles.SecondaryColor,
		"subtitles.outlinecolor":   c.Subtitles.OutlineColor,
		"subtitles.backcolor":      c.Subtitles.BackColor,
	}
	for key, value := range colors {
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validateAI() error {
	services := map[string]AIService{
		"ai.text":   c.AI.Text,
		"ai.image":  c.AI.Image,
		"ai.video":  c.AI.Video,
		"ai.speech": c.AI.Speech,
	}
	for key, svc := range services {
		if svc.Provider == "" {
			return fmt.Errorf("%s.provider must be set", key)
		}
		if svc.RequestsPerSecond < 0 {
			return fmt.Errorf("%s.requests_per_second must be zero or positive", key)
		}
	}
	return nil
}

func (c *Config) validateIdeas() error {
	if c.Ideas.Count <= 0 {
		return errors.New("ideas.n_ideas must be positive")
	}
	if len(c.Ideas.Languages) == 0 {
		return errors.New("ideas.languages must list at least one language")
	}
	return nil
}

// RGBA is a subtitle colour with ASS-style alpha (0 opaque, 255 transparent).
type RGBA struct {
	R, G, B, A uint8
}

// ParseColor parses "r,g,b" or "r,g,b,a" component lists.
func ParseColor(value string) (RGBA, error) {
	parts := strings.Split(strings.TrimSpace(value), ",")
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, fmt.Errorf("colour %q must have 3 or 4 comma-separated components", value)
	}
	var out [4]uint8
	for i, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("colour %q: component %d: %w", value, i+1, err)
		}
		out[i] = uint8(n)
	}
	return RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}, nil
}

func contains(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}
