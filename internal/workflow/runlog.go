package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
)

// RunLogDirName is the subdirectory of paths.log_dir holding per-entity logs.
const RunLogDirName = "runs"

// RunLogger manages dedicated log files for individual entities so one run's
// history can be read without grepping the main log.
type RunLogger struct {
	baseDir string
	cfg     *config.Config
}

// NewRunLogger creates a run logger rooted under the configured log dir.
func NewRunLogger(cfg *config.Config) *RunLogger {
	dir := ""
	if cfg != nil && cfg.Paths.LogDir != "" {
		dir = filepath.Join(cfg.Paths.LogDir, RunLogDirName)
	}
	return &RunLogger{baseDir: dir, cfg: cfg}
}

// Dir returns the directory holding run logs, or "" when disabled.
func (r *RunLogger) Dir() string {
	if r == nil {
		return ""
	}
	return r.baseDir
}

// PathFor returns the log path for an entity.
func (r *RunLogger) PathFor(e *content.Entity) (string, error) {
	if e == nil {
		return "", fmt.Errorf("content entity is nil")
	}
	if strings.TrimSpace(r.baseDir) == "" {
		return "", fmt.Errorf("run log directory not configured")
	}
	return filepath.Join(r.baseDir, fmt.Sprintf("reelforge-%s-%s.log", e.Kind().Name(), e.ID())), nil
}

// HandlerFor builds a JSON handler appending to the entity's log file.
func (r *RunLogger) HandlerFor(e *content.Entity) (slog.Handler, error) {
	path, err := r.PathFor(e)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure run log directory: %w", err)
	}
	level := "info"
	if r.cfg != nil && strings.TrimSpace(r.cfg.Logging.Level) != "" {
		level = r.cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		return nil, err
	}
	return logger.Handler(), nil
}
