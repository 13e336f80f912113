package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/notifications"
	"reelforge/internal/provider"
	"reelforge/internal/services"
	"reelforge/internal/stage"
	"reelforge/internal/subtitles"
)

// Observer receives progress callbacks. Implementations must not block for
// long and their failures never affect the run.
type Observer interface {
	RunStarted(ctx context.Context, e *content.Entity)
	StageCommitted(ctx context.Context, e *content.Entity, name stage.Name)
	RunFinished(ctx context.Context, e *content.Entity, err error)
}

// Pipeline runs content entities to completion.
type Pipeline struct {
	cfg       *config.Config
	providers *provider.Set
	editor    *media.Editor
	style     subtitles.Style
	base      *slog.Logger
	logger    *slog.Logger
	observer  Observer
	notifier  notifications.Service
	runLogs   *RunLogger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.base = logger
		}
	}
}

// WithObserver mirrors progress into o. Repeated options add observers,
// called in registration order.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o == nil {
			return
		}
		switch existing := p.observer.(type) {
		case nil:
			p.observer = o
		case observers:
			p.observer = append(existing, o)
		default:
			p.observer = observers{existing, o}
		}
	}
}

type observers []Observer

func (obs observers) RunStarted(ctx context.Context, e *content.Entity) {
	for _, o := range obs {
		o.RunStarted(ctx, e)
	}
}

func (obs observers) StageCommitted(ctx context.Context, e *content.Entity, name stage.Name) {
	for _, o := range obs {
		o.StageCommitted(ctx, e, name)
	}
}

func (obs observers) RunFinished(ctx context.Context, e *content.Entity, err error) {
	for _, o := range obs {
		o.RunFinished(ctx, e, err)
	}
}

// WithNotifier sends run outcomes through n.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithRunLogs writes a dedicated log file per entity in addition to the base
// logger.
func WithRunLogs(r *RunLogger) Option {
	return func(p *Pipeline) { p.runLogs = r }
}

// New assembles a pipeline. The subtitle style is resolved up front so a bad
// [subtitles] section fails before any generation call.
func New(cfg *config.Config, providers *provider.Set, editor *media.Editor, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "workflow", "config is required", nil)
	}
	if providers == nil || editor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "workflow", "providers and editor are required", nil)
	}
	style, err := subtitles.StyleFromConfig(cfg.Subtitles)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "workflow", "subtitle style", err)
	}
	p := &Pipeline{
		cfg:       cfg,
		providers: providers,
		editor:    editor,
		style:     style,
		base:      logging.NewNop(),
		notifier:  notifications.NewService(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.base, "workflow")
	return p, nil
}

// Run advances e through every remaining stage and returns the final video
// per language. Cancelling ctx (or exceeding workflow.run_timeout) stops the
// run; e stays at its last committed stage.
func (p *Pipeline) Run(ctx context.Context, e *content.Entity) (map[string]string, error) {
	if e == nil {
		return nil, services.Wrap(services.ErrValidation, "", "run", "entity is required", nil)
	}
	if timeout := p.cfg.Workflow.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	ctx = services.WithContentDir(ctx, e.Dir())
	ctx = services.WithRequestID(ctx, uuid.NewString())

	r := &run{p: p, e: e, logger: p.entityLogger(e)}
	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("kind", e.Kind().Name()),
		logging.String("current_stage", string(e.Current())),
		logging.Strings("languages", e.Languages()),
	)
	if p.observer != nil {
		p.observer.RunStarted(ctx, e)
	}

	finals, err := r.dispatch(ctx)

	if p.observer != nil {
		p.observer.RunFinished(ctx, e, err)
	}
	// Notifications and purge still run after a timeout or interrupt.
	tail := context.WithoutCancel(ctx)
	if err != nil {
		p.reportFailure(tail, logger, e, err)
		return nil, err
	}

	if p.cfg.Workflow.PurgeOnComplete {
		removed, purgeErr := e.Purge(content.KeepDefaults(e))
		if purgeErr != nil {
			logging.WarnWithContext(logger, "purge failed", "purge_failed",
				logging.Error(purgeErr),
				logging.String(logging.FieldImpact, "intermediate files remain on disk"),
				logging.String(logging.FieldErrorHint, "run reelforge purge on the directory"),
			)
		} else {
			logger.Info("intermediates purged", logging.Int("files", len(removed)))
		}
	}

	elapsed := time.Since(start)
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("run_duration", elapsed),
		logging.Strings("outputs", stage.Artifact{Languages: finals}.Paths()),
	)
	if err := p.notifier.NotifyRunCompleted(tail, e.ID(), finals, elapsed); err != nil {
		logger.Debug("run completion notification failed", logging.Error(err))
	}
	return finals, nil
}

func (p *Pipeline) reportFailure(ctx context.Context, logger *slog.Logger, e *content.Entity, err error) {
	details := services.Details(err)
	logging.ErrorWithContext(logger, "run failed", "run_failed",
		logging.String("current_stage", string(e.Current())),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.Error(err),
	)
	label := fmt.Sprintf("%s (at %s)", e.ID(), e.Current())
	if notifyErr := p.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		logger.Debug("error notification failed", logging.Error(notifyErr))
	}
}

func (p *Pipeline) entityLogger(e *content.Entity) *slog.Logger {
	if p.runLogs == nil {
		return p.logger
	}
	handler, err := p.runLogs.HandlerFor(e)
	if err != nil {
		logging.WarnWithContext(p.logger, "run log unavailable", "run_log_unavailable",
			logging.ContentDir(e.Dir()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run logs to the main log only"),
		)
		return p.logger
	}
	return logging.NewComponentLogger(slog.New(logging.Tee(p.base.Handler(), handler)), "workflow")
}

// run carries the per-invocation state of Pipeline.Run.
type run struct {
	p      *Pipeline
	e      *content.Entity
	logger *slog.Logger
}

func (r *run) dispatch(ctx context.Context) (map[string]string, error) {
	switch idea := r.e.Idea().(type) {
	case *content.ShortVideoIdea:
		return r.shortVideo(ctx, idea)
	case *content.MusicVideoIdea:
		return r.musicVideo(ctx, idea)
	default:
		return nil, services.Wrap(services.ErrValidation, "", "run", fmt.Sprintf("no pipeline for kind %q", r.e.Kind().Name()), nil)
	}
}
