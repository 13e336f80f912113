package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"reelforge/internal/config"
	"reelforge/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBackground verifies that the background audio file or directory is
// readable and, for a directory, holds at least one audio file.
func CheckBackground(path string) Result {
	const name = "Background audio"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Passed: true, Detail: path}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && isAudio(entry.Name()) {
			count++
		}
	}
	if count == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no audio files)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d tracks)", path, count)}
}

func isAudio(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg", ".opus":
		return true
	}
	return false
}

// CheckProviderKeys reports whether each remote provider a run requests has
// credentials. The text provider is left to the ideas command.
func CheckProviderKeys(cfg *config.Config) []Result {
	sections := []struct {
		kind string
		svc  config.AIService
	}{
		{"image", cfg.AI.Image},
		{"video", cfg.AI.Video},
		{"speech", cfg.AI.Speech},
	}
	results := make([]Result, 0, len(sections))
	for _, section := range sections {
		name := fmt.Sprintf("%s provider (%s)", section.kind, section.svc.Provider)
		env := config.ProviderKeyEnv(section.svc.Provider)
		switch {
		case env == "":
			results = append(results, Result{Name: name, Passed: true, Detail: "no credentials required"})
		case section.svc.APIKey == "":
			results = append(results, Result{Name: name, Detail: fmt.Sprintf("API key missing (set ai.%s.api_key or %s)", section.kind, env)})
		default:
			results = append(results, Result{Name: name, Passed: true, Detail: "API key configured"})
		}
	}
	return results
}

// CheckSystemDeps evaluates the external binaries the editor shells out to.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckMediaTools(ctx, cfg.FFmpegBinary(), cfg.FFprobeBinary(), nil)
}
