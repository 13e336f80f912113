package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/content"
	"reelforge/internal/logging"
)

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	IntegrityCheck   bool
	TotalEntries     int
	Error            string
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM entities GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates catalog state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusRunning:
			health.Running += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM entities").Scan(&health.TotalEntries); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count entries: %w", err)
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")
	return health, nil
}

// RescanResult summarizes a Rescan.
type RescanResult struct {
	Found   int
	Removed int
	Skipped int
}

// Rescan rebuilds the mirror from the content tree under root: every
// directory holding an idea file is loaded and upserted at its ledger stage,
// and rows whose directory vanished are removed. Unreadable entities are
// logged and skipped.
func (s *Store) Rescan(ctx context.Context, root string, logger *slog.Logger) (RescanResult, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result RescanResult
	seen := make(map[string]struct{})

	kinds, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("read content root: %w", err)
	}
	for _, kindDir := range kinds {
		if !kindDir.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, kindDir.Name()))
		if err != nil {
			return result, fmt.Errorf("read %s: %w", kindDir.Name(), err)
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			dir := filepath.Join(root, kindDir.Name(), entry.Name())
			if !entry.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, content.IdeaFileName)); err != nil {
				continue
			}
			entity, err := content.Load(ctx, dir, logger)
			if err != nil {
				result.Skipped++
				logging.WarnWithContext(logger, "skipping unreadable entity", "catalog_rescan_skip",
					logging.ContentDir(dir),
					logging.Error(err),
					logging.String(logging.FieldImpact, "entity not listed"),
					logging.String(logging.FieldErrorHint, "inspect idea.json and .state in the directory"),
				)
				continue
			}
			status := StatusForStage(entity.Current(), entity.Table())
			if _, err := s.Upsert(ctx, dir, entity.Kind().Name(), entity.Current(), status, entity.Languages()); err != nil {
				return result, err
			}
			seen[dir] = struct{}{}
			result.Found++
		}
	}

	existing, err := s.List(ctx)
	if err != nil {
		return result, err
	}
	for _, entry := range existing {
		if _, ok := seen[entry.Dir]; ok {
			continue
		}
		if _, err := os.Stat(entry.Dir); err == nil {
			continue
		}
		if _, err := s.Remove(ctx, entry.Dir); err != nil {
			return result, err
		}
		result.Removed++
	}
	return result, nil
}
