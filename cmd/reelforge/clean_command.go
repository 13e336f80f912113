package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelforge/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool
	var usage bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch files abandoned by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if usage {
				dirs, err := staging.Usage(cfg.Paths.ContentDir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(dirs))
				var total int64
				for _, d := range dirs {
					total += d.Size
					rows = append(rows, []string{d.Path, humanize.Bytes(uint64(d.Size)), humanize.Time(d.ModTime)})
				}
				fmt.Fprintln(out, renderTable([]string{"Directory", "Size", "Modified"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft}))
				fmt.Fprintf(out, "Total: %s in %d entities\n", humanize.Bytes(uint64(total)), len(dirs))
				return nil
			}

			result := staging.CleanStale(cmd.Context(), cfg.Paths.ContentDir, olderThan, dryRun, logger)
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, path := range result.Removed {
				fmt.Fprintf(out, "  %s\n", path)
			}
			fmt.Fprintf(out, "%s %d file(s), %s\n", verb, len(result.Removed), humanize.Bytes(uint64(result.Bytes)))
			for _, e := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine(e.Path, statusWarn, e.Error.Error(), shouldColorize(cmd.ErrOrStderr())))
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d file(s) could not be cleaned", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 6*time.Hour, "Only remove scratch files last modified before this age")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List files without removing them")
	cmd.Flags().BoolVar(&usage, "usage", false, "Show disk usage per entity instead of cleaning")
	return cmd
}
