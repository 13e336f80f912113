package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/content"
)

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <content-dir>...",
		Short: "Delete intermediate files, keeping the idea, progress, and final videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				entity, err := ctx.loadEntity(cmd.Context(), arg)
				if err != nil {
					return err
				}
				unlock, err := entity.Lock()
				if err != nil {
					return err
				}
				removed, err := entity.Purge(content.KeepDefaults(entity))
				_ = unlock()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: removed %d file(s)\n", entity.ID(), len(removed))
			}
			return nil
		},
	}
}
