package catalog

import (
	"errors"
	"fmt"

	"reelforge/internal/services"
)

// ErrEntryNotFound reports an update against a directory the catalog does
// not know.
var ErrEntryNotFound = fmt.Errorf("catalog entry: %w", services.ErrNotFound)

// IsNotFound reports whether err is an unknown-entry error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}
