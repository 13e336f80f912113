package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelforge/internal/stage"
)

const entryColumns = "id, dir, kind, stage, status, languages, error_message, error_kind, attempts, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry        Entry
		stageRaw     string
		statusRaw    string
		languages    sql.NullString
		errorMessage sql.NullString
		errorKind    sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Dir,
		&entry.Kind,
		&stageRaw,
		&statusRaw,
		&languages,
		&errorMessage,
		&errorKind,
		&entry.Attempts,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	entry.Stage = stage.Name(stageRaw)
	entry.Status = Status(statusRaw)
	if languages.Valid && languages.String != "" {
		entry.Languages = strings.Split(languages.String, ",")
	}
	entry.ErrorMessage = errorMessage.String
	entry.ErrorKind = errorKind.String
	entry.CreatedAt = parseTime(createdRaw)
	entry.UpdatedAt = parseTime(updatedRaw)
	return &entry, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Upsert records an entity's identity and current stage. Existing rows keep
// their creation time and attempt count; a row at the terminal stage becomes
// completed, otherwise a non-running row returns to pending.
func (s *Store) Upsert(ctx context.Context, dir, kind string, current stage.Name, status Status, languages []string) (*Entry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("entry dir is required")
	}
	timestamp := now()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO entities (dir, kind, stage, status, languages, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(dir) DO UPDATE SET
             kind = excluded.kind,
             stage = excluded.stage,
             status = CASE WHEN entities.status = ? THEN entities.status ELSE excluded.status END,
             languages = excluded.languages,
             updated_at = excluded.updated_at`,
		dir, kind, string(current), status, nullableString(strings.Join(languages, ",")), timestamp, timestamp,
		StatusRunning,
	); err != nil {
		return nil, fmt.Errorf("upsert entry: %w", err)
	}
	return s.GetByDir(ctx, dir)
}

// GetByDir fetches an entry by its directory; nil when absent.
func (s *Store) GetByDir(ctx context.Context, dir string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM entities WHERE dir = ?`, dir)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns entries ordered by creation, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entities`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkRunning flags an entry as in flight and counts the attempt.
func (s *Store) MarkRunning(ctx context.Context, dir string) error {
	return s.update(ctx, "mark running",
		`UPDATE entities SET status = ?, error_message = NULL, error_kind = NULL,
             attempts = attempts + 1, updated_at = ? WHERE dir = ?`,
		StatusRunning, now(), dir)
}

// RecordStage mirrors a committed stage.
func (s *Store) RecordStage(ctx context.Context, dir string, current stage.Name) error {
	return s.update(ctx, "record stage",
		`UPDATE entities SET stage = ?, updated_at = ? WHERE dir = ?`,
		string(current), now(), dir)
}

// MarkCompleted records a finished run.
func (s *Store) MarkCompleted(ctx context.Context, dir string, current stage.Name) error {
	return s.update(ctx, "mark completed",
		`UPDATE entities SET status = ?, stage = ?, error_message = NULL, error_kind = NULL,
             updated_at = ? WHERE dir = ?`,
		StatusCompleted, string(current), now(), dir)
}

// MarkFailed records a failed run with its classification.
func (s *Store) MarkFailed(ctx context.Context, dir string, current stage.Name, message, kind string) error {
	return s.update(ctx, "mark failed",
		`UPDATE entities SET status = ?, stage = ?, error_message = ?, error_kind = ?,
             updated_at = ? WHERE dir = ?`,
		StatusFailed, string(current), nullableString(message), nullableString(kind), now(), dir)
}

// MarkPending returns an entry to the runnable pool without an error.
func (s *Store) MarkPending(ctx context.Context, dir string) error {
	return s.update(ctx, "mark pending",
		`UPDATE entities SET status = ?, updated_at = ? WHERE dir = ?`,
		StatusPending, now(), dir)
}

// Remove deletes an entry.
func (s *Store) Remove(ctx context.Context, dir string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM entities WHERE dir = ?`, dir)
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}
	return affected > 0, nil
}

// ResetInterrupted returns entries left running by a crashed or killed run
// to failed so the next batch retries them.
func (s *Store) ResetInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE entities SET status = ?, error_message = ?, error_kind = 'canceled', updated_at = ?
         WHERE status = ?`,
		StatusFailed, InterruptedReason, now(), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) update(ctx context.Context, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrEntryNotFound)
	}
	return nil
}
