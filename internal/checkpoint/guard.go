package checkpoint

import (
	"context"
	"fmt"

	"reelforge/internal/stage"
)

// Work performs one stage and returns the artifact it produced.
type Work func(ctx context.Context) (stage.Artifact, error)

// Outcome reports what Guard did.
type Outcome struct {
	Artifact stage.Artifact
	// Skipped is true when the stage was already reached and work did not run.
	Skipped bool
}

// Guard runs work at most once per entity lifetime for target.
//
// If the tracker is already at or beyond target, work is not invoked and the
// table's descriptor for target is returned. Otherwise work runs; on success
// the tracker advances (durably) to target, and on failure the error is
// returned unchanged with the tracker untouched.
func Guard(ctx context.Context, t Tracker, target stage.Name, work Work) (Outcome, error) {
	table := t.Table()
	recorded, ok := table.Lookup(target)
	if !ok {
		return Outcome{}, fmt.Errorf("guard: %w %q", ErrUnknownStage, target)
	}
	if stage.Reached(t.Current(), target) {
		return Outcome{Artifact: recorded, Skipped: true}, nil
	}

	artifact, err := work(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if artifact.Stage == "" {
		artifact.Stage = target
	}
	if err := t.Advance(ctx, target); err != nil {
		return Outcome{}, err
	}
	return Outcome{Artifact: artifact}, nil
}
