package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/catalog"
	"reelforge/internal/content"
	"reelforge/internal/stage"
)

type stageView struct {
	Stage     string            `json:"stage"`
	Done      bool              `json:"done"`
	Path      string            `json:"path,omitempty"`
	Languages map[string]string `json:"languages,omitempty"`
}

type statusView struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Dir       string      `json:"dir"`
	Languages []string    `json:"languages"`
	Current   string      `json:"current_stage"`
	Complete  bool        `json:"complete"`
	Catalog   string      `json:"catalog_status,omitempty"`
	LastError string      `json:"last_error,omitempty"`
	Stages    []stageView `json:"stages"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <content-dir>",
		Short: "Show a content entity's stage progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := ctx.loadEntity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := buildStatusView(entity)
			if store, err := ctx.catalogStore(); err == nil {
				if entry, err := store.GetByDir(cmd.Context(), entity.Dir()); err == nil {
					view.Catalog = string(entry.Status)
					view.LastError = entry.ErrorMessage
				} else if !catalog.IsNotFound(err) {
					return err
				}
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			printStatus(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func buildStatusView(e *content.Entity) statusView {
	table := e.Table()
	view := statusView{
		ID:        e.ID(),
		Kind:      e.Kind().Name(),
		Dir:       e.Dir(),
		Languages: e.Languages(),
		Current:   string(e.Current()),
		Complete:  e.Current() == table.Last(),
	}
	for _, name := range table.Names() {
		artifact, _ := table.Lookup(name)
		view.Stages = append(view.Stages, stageView{
			Stage:     string(name),
			Done:      stage.Reached(e.Current(), name),
			Path:      artifact.Path,
			Languages: artifact.Languages,
		})
	}
	return view
}

func printStatus(cmd *cobra.Command, view statusView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(view.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Kind:      %s\n", view.Kind)
	fmt.Fprintf(out, "Directory: %s\n", view.Dir)
	fmt.Fprintf(out, "Languages: %s\n", strings.Join(view.Languages, ", "))
	fmt.Fprintf(out, "Stage:     %s (complete: %s)\n", view.Current, yesNo(view.Complete))
	if view.Catalog != "" {
		fmt.Fprintf(out, "Catalog:   %s\n", view.Catalog)
	}
	if view.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, view.LastError, colorize))
	}

	rows := make([][]string, 0, len(view.Stages))
	for _, s := range view.Stages {
		artifact := stage.Artifact{Path: s.Path, Languages: s.Languages}
		paths := artifact.Paths()
		names := make([]string, 0, len(paths))
		for _, p := range paths {
			names = append(names, filepath.Base(p)+presence(p, s.Done))
		}
		rows = append(rows, []string{s.Stage, yesNo(s.Done), strings.Join(names, "\n")})
	}
	fmt.Fprintln(out, renderTable([]string{"Stage", "Done", "Artifacts"}, rows, nil))
}

// presence flags artifacts of completed stages that are gone, usually after
// a purge.
func presence(path string, done bool) string {
	if !done {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return " (missing)"
	}
	return ""
}
