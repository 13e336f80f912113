package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/logs"
	"reelforge/internal/workflow"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs <content-dir>",
		Short: "Show the run log of a content entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entity, err := ctx.loadEntity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := workflow.NewRunLogger(cfg).PathFor(entity)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			emit := func(batch []string) error {
				for _, line := range batch {
					rec := logs.Parse(line)
					if !filter.Match(rec) {
						continue
					}
					if raw {
						fmt.Fprintln(out, line)
					} else {
						fmt.Fprintln(out, logs.Format(rec))
					}
				}
				return nil
			}

			result, err := logs.Tail(path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			if len(result.Lines) == 0 && !follow {
				fmt.Fprintf(out, "No run log at %s\n", path)
				return nil
			}
			if err := emit(result.Lines); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, result.Offset, 500*time.Millisecond, emit)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing appended lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unformatted")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only show records for a stage")
	cmd.Flags().StringVar(&filter.Language, "language", "", "Only show records for a language code")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
