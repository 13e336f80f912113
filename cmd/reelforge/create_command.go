package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"reelforge/internal/content"
)

type createdEntity struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Dir  string `json:"dir"`
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "create <idea-file>...",
		Short: "Create content entities from idea files",
		Long: "Create one content entity per idea. A file may hold a single idea object or an array of ideas,\n" +
			"written as JSON or, with a .yaml/.yml extension, as YAML.\n" +
			"The kind is read from each idea's \"kind\" field unless --kind is given; short_video is the fallback.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var created []createdEntity
			for _, path := range args {
				ideas, err := readIdeas(path)
				if err != nil {
					return err
				}
				for i, raw := range ideas {
					kind, err := content.LookupKind(resolveKindName(kindFlag, raw))
					if err != nil {
						return fmt.Errorf("%s[%d]: %w", path, i, err)
					}
					entity, err := content.Create(cmd.Context(), cfg.Paths.ContentDir, kind, raw)
					if err != nil {
						return fmt.Errorf("%s[%d]: %w", path, i, err)
					}
					ctx.register(cmd.Context(), entity)
					created = append(created, createdEntity{ID: entity.ID(), Kind: kind.Name(), Dir: entity.Dir()})
				}
			}

			if jsonOut {
				return writeJSON(cmd, created)
			}
			rows := make([][]string, 0, len(created))
			for _, c := range created {
				rows = append(rows, []string{c.ID, c.Kind, c.Dir})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Kind", "Directory"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Content kind ("+strings.Join(content.KindNames(), ", ")+")")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// readIdeas returns the idea objects held in path.
func readIdeas(path string) ([]json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read idea file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if raw, err = yamlToJSON(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("[")) {
		return []json.RawMessage{trimmed}, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("%s: decode idea list: %w", path, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s: idea list is empty", path)
	}
	return list, nil
}

// yamlToJSON re-encodes a YAML document so ideas decode through one path.
func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("yaml document is empty")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return out, nil
}

func resolveKindName(flag string, raw []byte) string {
	if name := strings.TrimSpace(flag); name != "" {
		return name
	}
	if name := content.DetectKind(raw); name != "" {
		return name
	}
	return content.KindShortVideo
}
