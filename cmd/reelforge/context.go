package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/catalog"
	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/metrics"
	"reelforge/internal/notifications"
	"reelforge/internal/provider"
	"reelforge/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	store   *catalog.Store
	metrics *metrics.Collector
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once and prunes expired log files.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		now := time.Now()
		logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, now)
		logging.PruneLogs(logger, filepath.Join(cfg.Paths.LogDir, workflow.RunLogDirName), cfg.Logging.RetentionDays, now)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// catalogStore opens the catalog on first use; close releases it.
func (c *commandContext) catalogStore() (*catalog.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

// flushMetrics writes the run metrics textfile when one is configured.
func (c *commandContext) flushMetrics() {
	if c.metrics == nil || c.config == nil {
		return
	}
	if err := c.metrics.WriteTextfile(c.config.Metrics.TextfilePath); err != nil {
		logging.WarnWithContext(c.logger, "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "node exporter keeps the previous run's values"),
			logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
		)
	}
}

func (c *commandContext) editor(logger *slog.Logger) *media.Editor {
	cfg := c.config
	return media.NewEditor(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logging.NewComponentLogger(logger, "media"))
}

// newPipeline resolves providers and wires the catalog and metrics
// observers, notifier, and per-entity run logs.
func (c *commandContext) newPipeline() (*workflow.Pipeline, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	editor := c.editor(logger)
	providers, err := provider.Build(cfg, provider.Deps{Editor: editor, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	store, err := c.catalogStore()
	if err != nil {
		return nil, nil, err
	}
	c.metrics = metrics.NewCollector(logger)
	pipeline, err := workflow.New(cfg, providers, editor,
		workflow.WithLogger(logger),
		workflow.WithObserver(catalog.NewObserver(store, logger)),
		workflow.WithObserver(c.metrics),
		workflow.WithNotifier(notifications.NewService(cfg)),
		workflow.WithRunLogs(workflow.NewRunLogger(cfg)),
	)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, logger, nil
}

// loadEntity opens the entity at a user-supplied directory path.
func (c *commandContext) loadEntity(ctx context.Context, arg string) (*content.Entity, error) {
	dir, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", arg, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", arg, err)
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return content.Load(ctx, abs, logger)
}

// register mirrors a freshly created entity into the catalog. A catalog
// failure is logged; the entity itself is already durable.
func (c *commandContext) register(ctx context.Context, e *content.Entity) {
	logger, _ := c.ensureLogger()
	store, err := c.catalogStore()
	if err == nil {
		_, err = store.Upsert(ctx, e.Dir(), e.Kind().Name(), e.Current(), catalog.StatusForStage(e.Current(), e.Table()), e.Languages())
	}
	if err != nil {
		logging.WarnWithContext(logger, "catalog registration failed", "catalog_register_failed",
			logging.ContentDir(e.Dir()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entity missing from reelforge list"),
			logging.String(logging.FieldErrorHint, "run reelforge list --rescan"),
		)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
