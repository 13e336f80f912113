package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/catalog"
)

type listEntry struct {
	Dir       string   `json:"dir"`
	Kind      string   `json:"kind"`
	Stage     string   `json:"stage"`
	Status    string   `json:"status"`
	Languages []string `json:"languages"`
	Attempts  int      `json:"attempts"`
	Error     string   `json:"error,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var rescan bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued content entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			store, err := ctx.catalogStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if rescan {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				reset, err := store.ResetInterrupted(cmd.Context())
				if err != nil {
					return err
				}
				result, err := store.Rescan(cmd.Context(), cfg.Paths.ContentDir, logger)
				if err != nil {
					return err
				}
				if !jsonOut {
					fmt.Fprintf(out, "Rescan: %d found, %d removed, %d skipped, %d interrupted reset\n",
						result.Found, result.Removed, result.Skipped, reset)
				}
			}

			entries, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			views := make([]listEntry, 0, len(entries))
			for _, e := range entries {
				views = append(views, listEntry{
					Dir:       e.Dir,
					Kind:      e.Kind,
					Stage:     string(e.Stage),
					Status:    string(e.Status),
					Languages: e.Languages,
					Attempts:  e.Attempts,
					Error:     e.ErrorMessage,
					UpdatedAt: e.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			if jsonOut {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No content entities")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Dir, v.Kind, v.Stage, v.Status, strings.Join(v.Languages, ","), strconv.Itoa(v.Attempts), v.UpdatedAt})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Directory", "Kind", "Stage", "Status", "Languages", "Attempts", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (pending, running, failed, completed)")
	cmd.Flags().BoolVar(&rescan, "rescan", false, "Rebuild the catalog from the content directory first")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func parseStatuses(values []string) ([]catalog.Status, error) {
	statuses := make([]catalog.Status, 0, len(values))
	for _, value := range values {
		status, ok := catalog.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
