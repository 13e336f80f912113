package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ContentDir  string `toml:"content_dir"`
	LogDir      string `toml:"log_dir"`
	CatalogPath string `toml:"catalog_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Workflow contains pipeline execution settings.
type Workflow struct {
	// LanguageConcurrency caps how many languages a fan-out stage processes at once.
	LanguageConcurrency int `toml:"language_concurrency"`
	// RunTimeout bounds one pipeline run in seconds. Zero disables the bound.
	RunTimeout int `toml:"run_timeout"`
	// PurgeOnComplete deletes intermediates once every language is subtitled.
	PurgeOnComplete bool `toml:"purge_on_complete"`
}

// Video contains video creation and extension settings.
type Video struct {
	CreationMethod  string  `toml:"creation_method"`
	ExtensionMethod string  `toml:"extension_method"`
	StaticDuration  float64 `toml:"static_duration"`
	Width           int     `toml:"width"`
	Height          int     `toml:"height"`
}

// Audio contains speech padding and background mixing settings.
type Audio struct {
	SilenceDuration float64 `toml:"silence_duration"`
	// BackgroundPath is an audio file or a directory of audio files; a random
	// entry is used for each language.
	BackgroundPath string  `toml:"background_path"`
	RelativeVolume float64 `toml:"relative_volume"`
}

// Subtitles contains the ASS style applied when burning in captions.
type Subtitles struct {
	FontName       string  `toml:"fontname"`
	FontSize       float64 `toml:"fontsize"`
	PrimaryColor   string  `toml:"primarycolor"`
	SecondaryColor string  `toml:"secondarycolor"`
	OutlineColor   string  `toml:"outlinecolor"`
	BackColor      string  `toml:"backcolor"`
	Bold           bool    `toml:"bold"`
	Italic         bool    `toml:"italic"`
	Underline      bool    `toml:"underline"`
	StrikeOut      bool    `toml:"strikeout"`
	ScaleX         float64 `toml:"scalex"`
	ScaleY         float64 `toml:"scaley"`
	Spacing        float64 `toml:"spacing"`
	Angle          float64 `toml:"angle"`
	BorderStyle    int     `toml:"borderstyle"`
	Outline        float64 `toml:"outline"`
	Shadow         float64 `toml:"shadow"`
	Alignment      string  `toml:"alignment"`
	MarginL        int     `toml:"margin_l"`
	MarginR        int     `toml:"margin_r"`
	MarginV        int     `toml:"margin_v"`
}

// AIService describes one generative backend. Provider-specific keys are
// ignored by providers that do not use them.
type AIService struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`

	// image
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// video
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxPollMinutes      int `toml:"max_poll_minutes"`

	// speech
	VoiceID         string  `toml:"voice_id"`
	OutputFormat    string  `toml:"output_format"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	Style           float64 `toml:"style"`
	SpeakerBoost    bool    `toml:"use_speaker_boost"`
}

// AI groups the backends per media kind.
type AI struct {
	Text   AIService `toml:"text"`
	Image  AIService `toml:"image"`
	Video  AIService `toml:"video"`
	Speech AIService `toml:"speech"`
}

// Ideas contains the idea generation prompt settings.
type Ideas struct {
	Count       int      `toml:"n_ideas"`
	TextDetails string   `toml:"text_details"`
	ImageTags   string   `toml:"img_tags"`
	Languages   []string `toml:"languages"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunComplete    bool   `toml:"run_complete"`
	Errors         bool   `toml:"errors"`
}

// Metrics contains Prometheus textfile export settings.
type Metrics struct {
	// TextfilePath receives run and stage metrics in the Prometheus text
	// format after each run command, for node_exporter's textfile collector.
	// Empty disables the export.
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: content root, logs, and the catalog database
//   - Logging: log format, level, and retention
//   - Workflow: fan-out width, run timeout, purge policy
//   - Video/Audio/Subtitles: editing parameters
//   - AI: provider selection and credentials per media kind
//   - Ideas: idea generation prompt inputs
//   - Notifications: ntfy push notification settings
//   - Metrics: Prometheus textfile export
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Workflow      Workflow      `toml:"workflow"`
	Video         Video         `toml:"video"`
	Audio         Audio         `toml:"audio"`
	Subtitles     Subtitles     `toml:"subtitles"`
	AI            AI            `toml:"ai"`
	Ideas         Ideas         `toml:"ideas"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the content and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ContentDir, c.Paths.LogDir}
	if c.Paths.CatalogPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CatalogPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for all editing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probes.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
