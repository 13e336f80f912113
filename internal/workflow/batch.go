package workflow

import (
	"context"
	"errors"
	"time"

	"reelforge/internal/catalog"
	"reelforge/internal/content"
	"reelforge/internal/logging"
)

// Lister is the slice of the catalog Batch reads.
type Lister interface {
	List(ctx context.Context, statuses ...catalog.Status) ([]*catalog.Entry, error)
}

// BatchResult tallies a batch run by entity directory.
type BatchResult struct {
	Succeeded []string
	Failed    []string
	// Skipped entities were locked by another run.
	Skipped []string
}

// Batch runs every pending or failed catalog entry, one entity at a time, in
// creation order. A failed entity does not stop the batch; cancelling ctx
// does, and the error returned is ctx's.
func (p *Pipeline) Batch(ctx context.Context, entries Lister) (BatchResult, error) {
	var result BatchResult
	listed, err := entries.List(ctx, catalog.StatusPending, catalog.StatusFailed)
	if err != nil {
		return result, err
	}
	start := time.Now()
	p.logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("entities", len(listed)),
	)

	for _, entry := range listed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch err := p.runEntry(ctx, entry.Dir); {
		case err == nil:
			result.Succeeded = append(result.Succeeded, entry.Dir)
		case errors.Is(err, content.ErrLocked):
			logging.WarnWithContext(p.logger, "entity skipped", "batch_skip",
				logging.ContentDir(entry.Dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entity is left for its current run"),
				logging.String(logging.FieldErrorHint, "wait for the other run to finish"),
			)
			result.Skipped = append(result.Skipped, entry.Dir)
		default:
			result.Failed = append(result.Failed, entry.Dir)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
		}
	}

	elapsed := time.Since(start)
	p.logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", len(result.Succeeded)),
		logging.Int("failed", len(result.Failed)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Duration("batch_duration", elapsed),
	)
	if len(listed) > 0 {
		if err := p.notifier.NotifyBatchCompleted(ctx, len(result.Succeeded), len(result.Failed), elapsed); err != nil {
			p.logger.Debug("batch notification failed", logging.Error(err))
		}
	}
	return result, nil
}

// runEntry loads, locks, and runs one entity directory.
func (p *Pipeline) runEntry(ctx context.Context, dir string) error {
	entity, err := content.Load(ctx, dir, p.logger)
	if err != nil {
		logging.ErrorWithContext(p.logger, "entity load failed", "batch_load_failed",
			logging.ContentDir(dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run reelforge list --rescan to drop stale entries"),
		)
		return err
	}
	unlock, err := entity.Lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()
	_, err = p.Run(ctx, entity)
	return err
}
