package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneLogs removes rotated log files in dir (reelforge*.log, excluding the
// active LogFileName) whose modification time is older than retentionDays.
// A retentionDays value of 0 disables pruning. It returns the removed paths.
func PruneLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time) []string {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == LogFileName {
			continue
		}
		if matched, _ := filepath.Match("reelforge*.log", name); !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(dir, name)
		if err := os.Remove(fullPath); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", fullPath),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed = append(removed, fullPath)
		if logger != nil {
			logger.Debug("log pruned", String("path", fullPath), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
