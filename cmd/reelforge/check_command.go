package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/preflight"
	"reelforge/internal/provider"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check directories, binaries, providers, and the catalog",
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
			colorize := shouldColorize(out)
			failures := 0

			section := func(title string) {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader(title, colorize) {
					fmt.Fprintln(out, line)
				}
			}

			section("Preflight")
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			section("System dependencies")
			for _, s := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind := statusOK
				switch {
				case s.Available:
				case s.Optional:
					kind = statusWarn
				default:
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(s.Name, kind, s.Detail, colorize))
			}

			section("Providers")
			deps := provider.Deps{Editor: ctx.editor(logger), Logger: logger}
			providers, err := provider.Build(cfg, deps)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Providers", statusError, err.Error(), colorize))
				failures++
			} else {
				for _, h := range providers.Check(cmd.Context(), ping) {
					if !h.Ready {
						failures++
					}
					fmt.Fprintln(out, renderHealthLine(h, colorize))
				}
			}
			// Runs never request text, so a missing text key only limits ideas.
			textLabel := fmt.Sprintf("text provider (%s)", cfg.AI.Text.Provider)
			if text, err := provider.Build(cfg, deps, provider.KindText); err != nil {
				fmt.Fprintln(out, renderStatusLine(textLabel, statusWarn, err.Error()+"; reelforge ideas is unavailable", colorize))
			} else {
				for _, h := range text.Check(cmd.Context(), ping) {
					if !h.Ready {
						failures++
					}
					fmt.Fprintln(out, renderHealthLine(h, colorize))
				}
			}

			section("Catalog")
			store, err := ctx.catalogStore()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
				failures++
			} else {
				health, err := store.CheckHealth(cmd.Context())
				switch {
				case err != nil:
					fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
					failures++
				case !health.IntegrityCheck:
					fmt.Fprintln(out, renderStatusLine("Database", statusError, health.Error, colorize))
					failures++
				default:
					fmt.Fprintln(out, renderStatusLine("Database", statusOK, fmt.Sprintf("%d entities", health.TotalEntries), colorize))
				}
			}

			if failures > 0 {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Make a live request to providers that support it")
	return cmd
}
