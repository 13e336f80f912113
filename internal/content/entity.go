package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelforge/internal/checkpoint"
	"reelforge/internal/fileutil"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

const (
	// IdeaFileName holds the idea payload inside an entity directory.
	IdeaFileName = "idea.json"
	// LockFileName is the advisory run lock inside an entity directory.
	LockFileName = ".lock"
)

var (
	// ErrNotFound reports a directory without an idea payload.
	ErrNotFound = fmt.Errorf("%w: content idea", services.ErrNotFound)
	// ErrStageNotReached reports a query for an artifact ahead of progress.
	ErrStageNotReached = fmt.Errorf("%w: stage not reached", services.ErrValidation)
	// ErrLocked reports another run holding the entity.
	ErrLocked = fmt.Errorf("%w: content is locked by another run", services.ErrValidation)
)

// Entity is one content idea, its directory, and its checkpointed progress.
type Entity struct {
	*checkpoint.State

	dir  string
	kind Kind
	idea Idea
}

// Create allocates <root>/<kind>/<timestamp>-<suffix>, writes the idea, and
// records initialized. Nothing is left behind on failure.
func Create(ctx context.Context, root string, kind Kind, raw []byte) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idea, err := kind.Decode(raw)
	if err != nil {
		return nil, err
	}

	parent := filepath.Join(root, kind.Name())
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	dir := filepath.Join(parent, newDirName(time.Now()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	entity, err := initialize(dir, kind, idea)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return entity, nil
}

func initialize(dir string, kind Kind, idea Idea) (*Entity, error) {
	data, err := encodeIdea(kind, idea)
	if err != nil {
		return nil, err
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, IdeaFileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("write idea: %w", err)
	}
	table, err := kind.Table(dir, idea)
	if err != nil {
		return nil, err
	}
	state, err := checkpoint.Init(dir, table)
	if err != nil {
		return nil, err
	}
	return &Entity{State: state, dir: dir, kind: kind, idea: idea}, nil
}

// Load reopens an entity from its directory. The ledger is the only source
// of progress; a missing record is logged and treated as initialized.
func Load(ctx context.Context, dir string, logger *slog.Logger) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir = filepath.Clean(dir)
	ideaPath := filepath.Join(dir, IdeaFileName)
	raw, err := os.ReadFile(ideaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ideaPath)
		}
		return nil, fmt.Errorf("read idea: %w", err)
	}

	kindName := DetectKind(raw)
	if kindName == "" {
		kindName = filepath.Base(filepath.Dir(dir))
	}
	kind, err := LookupKind(kindName)
	if err != nil {
		return nil, err
	}
	idea, err := kind.Decode(raw)
	if err != nil {
		return nil, err
	}
	table, err := kind.Table(dir, idea)
	if err != nil {
		return nil, err
	}
	state, found, err := checkpoint.Open(dir, table)
	if err != nil {
		return nil, err
	}
	if !found {
		logging.WarnWithContext(logger, "ledger record missing; defaulting to initialized", "ledger_missing",
			logging.ContentDir(dir),
			logging.String(logging.FieldErrorHint, "every stage will run on the next pipeline run"),
			logging.String(logging.FieldImpact, "previously generated artifacts are regenerated"),
		)
	}
	return &Entity{State: state, dir: dir, kind: kind, idea: idea}, nil
}

// Dir returns the entity's directory.
func (e *Entity) Dir() string { return e.dir }

// ID is the directory base name.
func (e *Entity) ID() string { return filepath.Base(e.dir) }

// Kind returns the content kind.
func (e *Entity) Kind() Kind { return e.kind }

// Idea returns the immutable payload.
func (e *Entity) Idea() Idea { return e.idea }

// Languages returns the fan-out set.
func (e *Entity) Languages() []string { return e.idea.LanguageCodes() }

// Artifact returns the descriptor of a reached stage.
func (e *Entity) Artifact(name stage.Name) (stage.Artifact, error) {
	artifact, ok := e.Table().Lookup(name)
	if !ok {
		return stage.Artifact{}, fmt.Errorf("artifact: %w %q", checkpoint.ErrUnknownStage, name)
	}
	if !stage.Reached(e.Current(), name) {
		return stage.Artifact{}, fmt.Errorf("artifact %s (current %s): %w", name, e.Current(), ErrStageNotReached)
	}
	return artifact, nil
}

// Purge deletes every regular file in the directory that keep rejects and
// returns the removed paths. The ledger and the lock file are never removed,
// so progress is unaffected whatever keep answers.
func (e *Entity) Purge(keep func(path string) bool) ([]string, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("purge: %w", err)
	}
	var removed []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		switch entry.Name() {
		case checkpoint.FileName, LockFileName:
			continue
		}
		path := filepath.Join(e.dir, entry.Name())
		if keep != nil && keep(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("purge %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// KeepDefaults retains the idea and the deliverables of the entity's last
// stage. An unfinished entity also keeps the outputs of every stage it has
// reached, since the next run reads them instead of regenerating them.
func KeepDefaults(e *Entity) func(path string) bool {
	keep := map[string]bool{
		filepath.Join(e.dir, IdeaFileName): true,
	}
	table := e.Table()
	retain := []stage.Name{table.Last()}
	if e.Current() != table.Last() {
		for _, name := range table.Names() {
			if stage.Reached(e.Current(), name) {
				retain = append(retain, name)
			}
		}
	}
	for _, name := range retain {
		if artifact, ok := table.Lookup(name); ok {
			for _, path := range artifact.Paths() {
				keep[filepath.Clean(path)] = true
			}
		}
	}
	return func(path string) bool {
		return keep[filepath.Clean(path)]
	}
}

// Lock takes the entity's advisory run lock without blocking. The returned
// func releases it.
func (e *Entity) Lock() (func() error, error) {
	lock := flock.New(filepath.Join(e.dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire content lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", e.dir, ErrLocked)
	}
	return lock.Unlock, nil
}

func newDirName(now time.Time) string {
	return now.UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}
