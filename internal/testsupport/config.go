package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every AI kind except text uses the placeholder provider and the text
// provider carries a dummy key, so Build succeeds offline.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ContentDir = filepath.Join(base, "content")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CatalogPath = filepath.Join(base, "catalog.db")
	cfgVal.AI.Text.APIKey = "test"
	cfgVal.AI.Image.Provider = "placeholder"
	cfgVal.AI.Video.Provider = "placeholder"
	cfgVal.AI.Speech.Provider = "placeholder"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackground points audio.background_path at a stub file.
func WithBackground() ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "music", "bed.mp3")
		WriteFile(b.t, path, 16)
		b.cfg.Audio.BackgroundPath = path
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		scripts := make(map[string]string, len(names))
		for _, name := range names {
			scripts[name] = "#!/bin/sh\nexit 0\n"
		}
		b.installBinaries(scripts)
	}
}

const (
	fakeFFmpeg  = "#!/bin/sh\nfor arg do last=$arg; done\nprintf media > \"$last\"\n"
	fakeFFprobe = "#!/bin/sh\nprintf '%s' '" + `{"streams":[{"codec_type":"video"},{"codec_type":"audio"}],"format":{"duration":"5"}}` + "'\n"
)

// WithFakeMediaTools installs an ffmpeg that writes its last argument (the
// output path) and an ffprobe that reports a 5 second clip with video and
// audio streams, so a placeholder pipeline run can complete.
func WithFakeMediaTools() ConfigOption {
	return func(b *configBuilder) {
		b.installBinaries(map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": fakeFFprobe})
	}
}

// WithoutTextKey clears the text provider credentials.
func WithoutTextKey() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AI.Text.APIKey = ""
	}
}

func (b *configBuilder) installBinaries(scripts map[string]string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	for name, script := range scripts {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}
	}

	oldPath := os.Getenv("PATH")
	if strings.HasPrefix(oldPath, binDir+string(os.PathListSeparator)) {
		return
	}
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ContentDir)
}
