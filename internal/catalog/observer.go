package catalog

import (
	"context"
	"log/slog"

	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

// Observer mirrors pipeline progress into the catalog. Catalog write
// failures are logged and never fail a run; the ledger stays authoritative.
type Observer struct {
	store  *Store
	logger *slog.Logger
}

// NewObserver wraps store for use as a workflow observer.
func NewObserver(store *Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Observer{store: store, logger: logging.NewComponentLogger(logger, "catalog")}
}

// RunStarted registers the entity and marks it running.
func (o *Observer) RunStarted(ctx context.Context, e *content.Entity) {
	if o == nil || o.store == nil {
		return
	}
	status := StatusForStage(e.Current(), e.Table())
	if _, err := o.store.Upsert(ctx, e.Dir(), e.Kind().Name(), e.Current(), status, e.Languages()); err != nil {
		o.warn(e, "register", err)
		return
	}
	if err := o.store.MarkRunning(ctx, e.Dir()); err != nil {
		o.warn(e, "mark running", err)
	}
}

// StageCommitted mirrors a committed stage.
func (o *Observer) StageCommitted(ctx context.Context, e *content.Entity, name stage.Name) {
	if o == nil || o.store == nil {
		return
	}
	if err := o.store.RecordStage(ctx, e.Dir(), name); err != nil {
		o.warn(e, "record stage", err)
	}
}

// RunFinished records the run outcome.
func (o *Observer) RunFinished(ctx context.Context, e *content.Entity, runErr error) {
	if o == nil || o.store == nil {
		return
	}
	// The run context may already be canceled; the mirror still needs the
	// final status.
	ctx = context.WithoutCancel(ctx)
	var err error
	switch {
	case runErr == nil && e.Current() == e.Table().Last():
		err = o.store.MarkCompleted(ctx, e.Dir(), e.Current())
	case runErr == nil:
		err = o.store.MarkPending(ctx, e.Dir())
	default:
		details := services.Details(runErr)
		err = o.store.MarkFailed(ctx, e.Dir(), e.Current(), details.Message, details.Kind)
	}
	if err != nil {
		o.warn(e, "record outcome", err)
	}
}

func (o *Observer) warn(e *content.Entity, op string, err error) {
	logging.WarnWithContext(o.logger, "catalog update failed", "catalog_update_failed",
		logging.ContentDir(e.Dir()),
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldImpact, "listing may be stale until the next rescan"),
		logging.String(logging.FieldErrorHint, "run reelforge list --rescan"),
	)
}
