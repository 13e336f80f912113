package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reelforge/internal/checkpoint"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

// step runs work for target under the checkpoint guard and logs the
// transition. Skipped stages return the descriptor recorded in the table.
func (r *run) step(ctx context.Context, target stage.Name, work checkpoint.Work) (stage.Artifact, error) {
	ctx = services.WithStage(ctx, string(target))
	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()

	outcome, err := checkpoint.Guard(ctx, r.e, target, func(ctx context.Context) (stage.Artifact, error) {
		logger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.String("from_stage", string(r.e.Current())),
		)
		return work(ctx)
	})
	if err != nil {
		details := services.Details(err)
		logging.ErrorWithContext(logger, "stage failed", "stage_failed",
			logging.Alert("stage_failure"),
			logging.String(logging.FieldErrorKind, details.Kind),
			logging.String(logging.FieldErrorHint, details.Hint),
			logging.Duration("stage_duration", time.Since(start)),
			logging.Error(err),
		)
		return stage.Artifact{}, err
	}
	if outcome.Skipped {
		logger.Info("stage skipped",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.String("current_stage", string(r.e.Current())),
		)
		return outcome.Artifact, nil
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Strings("artifacts", outcome.Artifact.Paths()),
		logging.Duration("stage_duration", time.Since(start)),
	)
	if r.p.observer != nil {
		r.p.observer.StageCommitted(ctx, r.e, target)
	}
	return outcome.Artifact, nil
}

// languageWork produces one language's output and returns its path.
type languageWork func(ctx context.Context, code string) (string, error)

// fanOut runs fn for every language, at most workflow.language_concurrency
// at a time. The first failure cancels the rest; no partial result is
// returned.
func (r *run) fanOut(ctx context.Context, target stage.Name, fn languageWork) (stage.Artifact, error) {
	codes := r.e.Languages()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.p.concurrency())

	var mu sync.Mutex
	paths := make(map[string]string, len(codes))
	for _, code := range codes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			langCtx := services.WithLanguage(gctx, code)
			path, err := fn(langCtx, code)
			if err != nil {
				return fmt.Errorf("%s: %w", code, err)
			}
			logging.WithContext(langCtx, r.logger).Debug("language finished", logging.String("path", path))
			mu.Lock()
			paths[code] = path
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stage.Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return stage.Artifact{}, err
	}
	return stage.Artifact{Stage: target, Languages: paths}, nil
}

func (p *Pipeline) concurrency() int {
	if n := p.cfg.Workflow.LanguageConcurrency; n > 0 {
		return n
	}
	return 1
}

// tablePath returns the path the entity's table assigns to target, for the
// language when code is set.
func (r *run) tablePath(target stage.Name, code string) (string, error) {
	artifact, ok := r.e.Table().Lookup(target)
	if !ok {
		return "", fmt.Errorf("lookup %s: %w", target, checkpoint.ErrUnknownStage)
	}
	path, ok := artifact.For(code)
	if !ok {
		return "", services.Wrap(services.ErrValidation, string(target), "lookup", "no artifact path for language "+code, nil)
	}
	return path, nil
}

// scratch names a per-language intermediate inside the entity directory.
func (r *run) scratch(code, name string) string {
	if code == "" {
		return filepath.Join(r.e.Dir(), name)
	}
	return filepath.Join(r.e.Dir(), code+"_"+name)
}
