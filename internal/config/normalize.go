package config

import (
	"fmt"
	"os"
	"strings"
)

// providerKeyEnv names the environment fallback consulted when a provider's
// api_key is left blank.
var providerKeyEnv = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"runware":    "RUNWARE_API_KEY",
	"minimax":    "MINIMAX_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
}

// ProviderKeyEnv returns the environment variable consulted for provider's key.
func ProviderKeyEnv(provider string) string {
	return providerKeyEnv[strings.ToLower(strings.TrimSpace(provider))]
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeVideo()
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	c.normalizeSubtitles()
	c.normalizeAI()
	c.normalizeIdeas()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ContentDir) == "" {
		c.Paths.ContentDir = defaultContentDir
	}
	if c.Paths.ContentDir, err = expandPath(c.Paths.ContentDir); err != nil {
		return fmt.Errorf("paths.content_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CatalogPath, err = expandPath(strings.TrimSpace(c.Paths.CatalogPath)); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeVideo() {
	c.Video.CreationMethod = strings.ToLower(strings.TrimSpace(c.Video.CreationMethod))
	if c.Video.CreationMethod == "" {
		c.Video.CreationMethod = defaultCreationMethod
	}
	c.Video.ExtensionMethod = strings.ToLower(strings.TrimSpace(c.Video.ExtensionMethod))
	if c.Video.ExtensionMethod == "" {
		c.Video.ExtensionMethod = defaultExtensionMethod
	}
}

func (c *Config) normalizeAudio() error {
	path := strings.TrimSpace(c.Audio.BackgroundPath)
	if path == "" {
		c.Audio.BackgroundPath = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("audio.background_path: %w", err)
	}
	c.Audio.BackgroundPath = expanded
	return nil
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.FontName = strings.TrimSpace(c.Subtitles.FontName)
	if c.Subtitles.FontName == "" {
		c.Subtitles.FontName = "Arial"
	}
	c.Subtitles.Alignment = strings.ToLower(strings.TrimSpace(c.Subtitles.Alignment))
	if c.Subtitles.Alignment == "" {
		c.Subtitles.Alignment = "middle_center"
	}
	if c.Subtitles.ScaleX == 0 {
		c.Subtitles.ScaleX = 100
	}
	if c.Subtitles.ScaleY == 0 {
		c.Subtitles.ScaleY = 100
	}
}

func (c *Config) normalizeAI() {
	for _, svc := range []*AIService{&c.AI.Text, &c.AI.Image, &c.AI.Video, &c.AI.Speech} {
		svc.Provider = strings.ToLower(strings.TrimSpace(svc.Provider))
		svc.Model = strings.TrimSpace(svc.Model)
		svc.BaseURL = strings.TrimRight(strings.TrimSpace(svc.BaseURL), "/")
		svc.APIKey = strings.TrimSpace(svc.APIKey)
		if svc.APIKey == "" {
			if env := ProviderKeyEnv(svc.Provider); env != "" {
				if value, ok := os.LookupEnv(env); ok {
					svc.APIKey = strings.TrimSpace(value)
				}
			}
		}
		if svc.TimeoutSeconds <= 0 {
			svc.TimeoutSeconds = defaultAITimeoutSeconds
		}
	}
	if c.AI.Video.PollIntervalSeconds <= 0 {
		c.AI.Video.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.AI.Video.MaxPollMinutes <= 0 {
		c.AI.Video.MaxPollMinutes = defaultMaxPollMinutes
	}
	if strings.TrimSpace(c.AI.Speech.OutputFormat) == "" {
		c.AI.Speech.OutputFormat = defaultSpeechOutputFormat
	}
}

func (c *Config) normalizeIdeas() {
	langs := make([]string, 0, len(c.Ideas.Languages))
	seen := make(map[string]struct{}, len(c.Ideas.Languages))
	for _, lang := range c.Ideas.Languages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		langs = append(langs, lang)
	}
	c.Ideas.Languages = langs
	c.Ideas.TextDetails = strings.TrimSpace(c.Ideas.TextDetails)
	c.Ideas.ImageTags = strings.TrimSpace(c.Ideas.ImageTags)
}
