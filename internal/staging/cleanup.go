package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reelforge/internal/logging"
)

// CleanResult contains the outcome of a sweep.
type CleanResult struct {
	Removed []string
	Bytes   int64
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// IsLeftover reports whether a file name is editing scratch rather than an
// artifact.
func IsLeftover(name string) bool {
	if strings.Contains(name, ".partial.") || strings.HasSuffix(name, ".partial") {
		return true
	}
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}

// CleanStale removes leftovers older than maxAge from every entity directory
// under root (root/<kind>/<entity>). A live run keeps rewriting its partial
// outputs, so age alone separates abandoned files. With dryRun nothing is
// deleted but the result lists what would be.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, dryRun bool, logger *slog.Logger) CleanResult {
	var result CleanResult
	if logger == nil {
		logger = logging.NewNop()
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	cutoff := time.Now().Add(-maxAge)

	for _, dir := range entityDirs(root, &result) {
		if ctx.Err() != nil {
			return result
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			continue
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() || !IsLeftover(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if !dryRun {
				if err := os.Remove(path); err != nil {
					result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
					logging.WarnWithContext(logger, "failed to remove stale scratch file", "staging_cleanup_failed",
						logging.String("path", path),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check content_dir permissions"),
						logging.String(logging.FieldImpact, "disk space not reclaimed"),
					)
					continue
				}
				logger.Info("removed stale scratch file",
					logging.String("path", path),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "staging_cleanup"),
				)
			}
			result.Removed = append(result.Removed, path)
			result.Bytes += info.Size()
		}
	}
	return result
}

// DirInfo contains metadata about an entity directory.
type DirInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Usage lists every entity directory under root with its total size,
// largest first.
func Usage(root string) ([]DirInfo, error) {
	var result CleanResult
	dirs := entityDirs(strings.TrimSpace(root), &result)
	if len(result.Errors) > 0 {
		return nil, result.Errors[0].Error
	}
	out := make([]DirInfo, 0, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			continue
		}
		size, _ := DirSize(dir)
		out = append(out, DirInfo{Path: dir, ModTime: info.ModTime(), Size: size})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	return out, nil
}

// DirSize totals the regular files below path, skipping unreadable entries.
func DirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				size += info.Size()
			}
		}
		return nil
	})
	return size, err
}

func entityDirs(root string, result *CleanResult) []string {
	if root == "" {
		return nil
	}
	kinds, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return nil
	}
	var dirs []string
	for _, kind := range kinds {
		if !kind.IsDir() {
			continue
		}
		kindDir := filepath.Join(root, kind.Name())
		entries, err := os.ReadDir(kindDir)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: kindDir, Error: err})
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(kindDir, entry.Name()))
			}
		}
	}
	return dirs
}
