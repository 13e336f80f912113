package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/preflight"
	"reelforge/internal/services"
	"reelforge/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var timeout time.Duration
	var purge bool

	cmd := &cobra.Command{
		Use:   "run [content-dir...]",
		Short: "Advance content entities through the pipeline",
		Long: "Run each given content directory to completion, resuming after its last completed stage.\n" +
			"With --all, every pending or failed catalog entry is run in creation order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass content directories or --all, not both")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Workflow.RunTimeout = int(timeout.Round(time.Second) / time.Second)
			}
			if purge {
				cfg.Workflow.PurgeOnComplete = true
			}

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				out := cmd.ErrOrStderr()
				for _, r := range failed {
					fmt.Fprintln(out, renderStatusLine(r.Name, statusError, r.Detail, shouldColorize(out)))
				}
				return services.Wrap(services.ErrConfiguration, "", "preflight", fmt.Sprintf("%d check(s) failed", len(failed)), nil)
			}

			pipeline, _, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			defer ctx.flushMetrics()
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if all {
				store, err := ctx.catalogStore()
				if err != nil {
					return err
				}
				result, err := pipeline.Batch(runCtx, store)
				fmt.Fprintf(out, "Succeeded: %d  Failed: %d  Skipped: %d\n", len(result.Succeeded), len(result.Failed), len(result.Skipped))
				for _, dir := range result.Failed {
					fmt.Fprintf(out, "  failed: %s\n", dir)
				}
				if err != nil {
					return err
				}
				if len(result.Failed) > 0 {
					return fmt.Errorf("%d entities failed", len(result.Failed))
				}
				return nil
			}

			var rows [][]string
			var failures []string
			for _, arg := range args {
				finals, err := runOne(runCtx, ctx, pipeline, arg)
				if err != nil {
					if runCtx.Err() != nil {
						return runCtx.Err()
					}
					failures = append(failures, fmt.Sprintf("%s: %v", arg, err))
					continue
				}
				codes := make([]string, 0, len(finals))
				for code := range finals {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				for _, code := range codes {
					rows = append(rows, []string{arg, code, finals[code]})
				}
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Content", "Language", "Final video"}, rows, nil))
			}
			if len(failures) > 0 {
				return errors.New(strings.Join(failures, "\n"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Run every pending or failed catalog entry")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Bound each run (overrides workflow.run_timeout)")
	cmd.Flags().BoolVar(&purge, "purge", false, "Purge intermediates after each completed run")
	return cmd
}

// runOne locks the entity for the duration of its run.
func runOne(ctx context.Context, cc *commandContext, pipeline *workflow.Pipeline, arg string) (map[string]string, error) {
	entity, err := cc.loadEntity(ctx, arg)
	if err != nil {
		return nil, err
	}
	unlock, err := entity.Lock()
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()
	return pipeline.Run(ctx, entity)
}
