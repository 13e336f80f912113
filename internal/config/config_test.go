package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelforge/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnvKeys(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")
	t.Setenv("RUNWARE_API_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantContent := filepath.Join(tempHome, ".local", "share", "reelforge", "content")
	if cfg.Paths.ContentDir != wantContent {
		t.Fatalf("unexpected content dir: got %q want %q", cfg.Paths.ContentDir, wantContent)
	}
	if cfg.AI.Text.APIKey != "or-key" {
		t.Fatalf("expected text key from env, got %q", cfg.AI.Text.APIKey)
	}
	if cfg.AI.Speech.APIKey != "el-key" {
		t.Fatalf("expected speech key from env, got %q", cfg.AI.Speech.APIKey)
	}
	if cfg.AI.Image.APIKey != "" {
		t.Fatalf("expected empty image key, got %q", cfg.AI.Image.APIKey)
	}
	if cfg.Workflow.LanguageConcurrency != config.Default().Workflow.LanguageConcurrency {
		t.Fatalf("unexpected language concurrency %d", cfg.Workflow.LanguageConcurrency)
	}
	if cfg.Video.CreationMethod != "static_image" || cfg.Video.ExtensionMethod != "loop" {
		t.Fatalf("unexpected video methods: %+v", cfg.Video)
	}
}

func TestLoadCustomFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	path := filepath.Join(dir, "reelforge.toml")
	body := `
[paths]
content_dir = "` + filepath.Join(dir, "content") + `"

[video]
creation_method = "AI"
extension_method = "ai"

[ai.video]
provider = "placeholder"

[ideas]
languages = ["EN", "pt", "en"]

[metrics]
textfile_path = "~/textfile/reelforge.prom"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Video.CreationMethod != "ai" {
		t.Fatalf("expected normalized creation method, got %q", cfg.Video.CreationMethod)
	}
	if cfg.AI.Video.Provider != "placeholder" {
		t.Fatalf("unexpected video provider %q", cfg.AI.Video.Provider)
	}
	if cfg.AI.Video.PollIntervalSeconds != 30 {
		t.Fatalf("expected default poll interval retained, got %d", cfg.AI.Video.PollIntervalSeconds)
	}
	if strings.Join(cfg.Ideas.Languages, ",") != "en,pt" {
		t.Fatalf("expected deduplicated languages, got %v", cfg.Ideas.Languages)
	}
	if want := filepath.Join(home, "textfile", "reelforge.prom"); cfg.Metrics.TextfilePath != want {
		t.Fatalf("expected expanded metrics path %q, got %q", want, cfg.Metrics.TextfilePath)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[video]\ncreation_mode = \"ai\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"video.creation_method":         func(c *config.Config) { c.Video.CreationMethod = "sketch" },
		"video.extension_method":        func(c *config.Config) { c.Video.ExtensionMethod = "stretch" },
		"workflow.language_concurrency": func(c *config.Config) { c.Workflow.LanguageConcurrency = 0 },
		"audio.relative_volume":         func(c *config.Config) { c.Audio.RelativeVolume = 3 },
		"subtitles.alignment":           func(c *config.Config) { c.Subtitles.Alignment = "centre" },
		"subtitles.primarycolor":        func(c *config.Config) { c.Subtitles.PrimaryColor = "255,255" },
		"ai.speech.provider":            func(c *config.Config) { c.AI.Speech.Provider = "" },
		"ideas.languages":               func(c *config.Config) { c.Ideas.Languages = nil },
		"logging.format":                func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for want, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("expected error containing %q", want)
		}
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error containing %q, got %v", want, err)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := config.ParseColor("10, 20, 30")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c != (config.RGBA{R: 10, G: 20, B: 30}) {
		t.Fatalf("unexpected colour %+v", c)
	}
	if _, err := config.ParseColor("300,0,0"); err == nil {
		t.Fatal("expected out-of-range component to fail")
	}
}

func TestSampleConfigIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("sample is not valid toml: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
}
