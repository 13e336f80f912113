package checkpoint

import (
	"context"
	"fmt"
	"sync"

	"reelforge/internal/stage"
)

// Tracker is the view of a content entity that Guard needs.
type Tracker interface {
	Table() stage.Table
	Current() stage.Name
	Advance(ctx context.Context, name stage.Name) error
}

// State is the in-memory current stage of one entity backed by its Ledger.
// It assumes a single writer per entity.
type State struct {
	mu      sync.RWMutex
	ledger  Ledger
	table   stage.Table
	current stage.Name
}

// Init records initialized for a freshly created entity.
func Init(dir string, table stage.Table) (*State, error) {
	ledger := NewLedger(dir)
	if err := ledger.Write(stage.Initialized); err != nil {
		return nil, err
	}
	return &State{ledger: ledger, table: table, current: stage.Initialized}, nil
}

// Open restores the state recorded in dir. A missing record yields
// initialized with found=false so callers can warn about it.
func Open(dir string, table stage.Table) (st *State, found bool, err error) {
	ledger := NewLedger(dir)
	name, found, err := ledger.Read()
	if err != nil {
		return nil, found, err
	}
	if !found {
		name = stage.Initialized
	}
	if !table.Has(name) {
		return nil, found, fmt.Errorf("ledger %s: %w %q for this content kind", ledger.Path(), ErrUnknownStage, name)
	}
	return &State{ledger: ledger, table: table, current: name}, found, nil
}

// Table returns the stage table the state was opened with.
func (s *State) Table() stage.Table {
	return s.table
}

// Current returns the last committed stage.
func (s *State) Current() stage.Name {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Ledger exposes the backing record.
func (s *State) Ledger() Ledger {
	return s.ledger
}

// Advance persists name and then moves the in-memory stage. It refuses
// unknown stages and any move that is not strictly forward. A cancelled ctx
// does not block the write: the work it records has already completed.
func (s *State) Advance(_ context.Context, name stage.Name) error {
	if !s.table.Has(name) {
		return fmt.Errorf("advance: %w %q", ErrUnknownStage, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stage.Reached(s.current, name) {
		return fmt.Errorf("advance %s -> %s: %w", s.current, name, ErrRegression)
	}
	if err := s.ledger.Write(name); err != nil {
		return err
	}
	s.current = name
	return nil
}
