package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"reelforge/internal/fileutil"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

// FileName is the ledger record inside a content directory.
const FileName = ".state"

var (
	// ErrUnknownStage reports a stage name outside the entity's table. It is a
	// usage error and is never retried.
	ErrUnknownStage = fmt.Errorf("%w: unknown stage", services.ErrValidation)
	// ErrRegression reports an attempt to move the checkpoint backwards or sideways.
	ErrRegression = fmt.Errorf("%w: stage regression", services.ErrValidation)
)

// Ledger persists one entity's current stage as a single text token.
type Ledger struct {
	dir string
}

// NewLedger returns the ledger stored in dir.
func NewLedger(dir string) Ledger {
	return Ledger{dir: dir}
}

// Path returns the ledger file location.
func (l Ledger) Path() string {
	return filepath.Join(l.dir, FileName)
}

// Read returns the recorded stage. found is false when no record exists.
func (l Ledger) Read() (name stage.Name, found bool, err error) {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read ledger %s: %w", l.Path(), err)
	}
	name, ok := stage.Parse(string(data))
	if !ok {
		return "", true, fmt.Errorf("ledger %s: %w %q", l.Path(), ErrUnknownStage, string(data))
	}
	return name, true, nil
}

// Write replaces the record atomically: readers observe either the previous
// token or the new one, never a partial write.
func (l Ledger) Write(name stage.Name) error {
	if _, ok := stage.Ordinal(name); !ok {
		return fmt.Errorf("write ledger: %w %q", ErrUnknownStage, name)
	}
	if err := fileutil.WriteFileAtomic(l.Path(), []byte(name), 0o644); err != nil {
		return fmt.Errorf("write ledger %s: %w", l.Path(), err)
	}
	return nil
}
