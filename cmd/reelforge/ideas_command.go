package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/content"
	"reelforge/internal/ideas"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/provider"
)

func newIdeasCommand(ctx *commandContext) *cobra.Command {
	var create bool
	var count int
	var languages []string

	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "Generate short-video ideas with the text provider",
		Long: "Ask the configured text provider for ideas and print them as JSON.\n" +
			"With --create, each valid idea becomes a new content entity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			ideaCfg := cfg.Ideas
			if count > 0 {
				ideaCfg.Count = count
			}
			if len(languages) > 0 {
				ideaCfg.Languages = languages
			}
			text, err := provider.BuildKind(provider.KindText, cfg.AI.Text, provider.Deps{Logger: logger})
			if err != nil {
				return err
			}
			generator := ideas.NewGenerator(text, ideaCfg, logger)
			ctx.avoidCatalogued(cmd.Context(), generator)
			out := cmd.OutOrStdout()

			if !create {
				drafts, err := generator.Generate(cmd.Context())
				if err != nil {
					return err
				}
				raws := make([]any, 0, len(drafts))
				for _, d := range drafts {
					raws = append(raws, d.Raw)
				}
				return writeJSON(cmd, raws)
			}

			entities, err := generator.Create(cmd.Context(), cfg.Paths.ContentDir)
			for _, e := range entities {
				ctx.register(cmd.Context(), e)
				fmt.Fprintf(out, "Created %s (%s)\n", e.Dir(), strings.Join(e.Languages(), ","))
			}
			if len(entities) > 0 {
				notifier := notifications.NewService(cfg)
				if notifyErr := notifier.NotifyIdeasCreated(cmd.Context(), len(entities)); notifyErr != nil {
					logger.Debug("ideas notification failed", logging.Error(notifyErr))
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "Create a content entity per idea")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of ideas to request (overrides ideas.n_ideas)")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "Language codes (overrides ideas.languages)")
	return cmd
}

// avoidCatalogued feeds the ideas of every catalogued short video to the
// generator so repeats are dropped. Unreadable entries are skipped.
func (c *commandContext) avoidCatalogued(ctx context.Context, generator *ideas.Generator) {
	store, err := c.catalogStore()
	if err != nil {
		return
	}
	entries, err := store.List(ctx)
	if err != nil {
		return
	}
	logger, _ := c.ensureLogger()
	for _, entry := range entries {
		if entry.Kind != content.KindShortVideo {
			continue
		}
		entity, err := content.Load(ctx, entry.Dir, logger)
		if err != nil {
			continue
		}
		generator.Avoid(entity.Idea())
	}
}
