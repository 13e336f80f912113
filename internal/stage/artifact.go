package stage

import (
	"fmt"
	"sort"
)

// Artifact describes where a stage's outputs live. Single-output stages set
// Path; per-language stages set Languages (code -> path). The initialized
// stage carries neither.
type Artifact struct {
	Stage     Name
	Path      string
	Languages map[string]string
}

// For returns the artifact path for a language, falling back to Path for
// single-output stages.
func (a Artifact) For(code string) (string, bool) {
	if len(a.Languages) > 0 {
		path, ok := a.Languages[code]
		return path, ok
	}
	if a.Path != "" {
		return a.Path, true
	}
	return "", false
}

// Paths lists every file the artifact refers to, in stable order.
func (a Artifact) Paths() []string {
	var out []string
	if a.Path != "" {
		out = append(out, a.Path)
	}
	codes := make([]string, 0, len(a.Languages))
	for code := range a.Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		out = append(out, a.Languages[code])
	}
	return out
}

// Table is the per-entity mapping from stage to artifact descriptor. Content
// kinds may omit stages they do not run but keep the global order.
type Table struct {
	entries map[Name]Artifact
}

// NewTable builds a table from artifacts. Every entry must use a known stage
// and initialized must be present.
func NewTable(artifacts ...Artifact) (Table, error) {
	entries := make(map[Name]Artifact, len(artifacts))
	for _, artifact := range artifacts {
		if _, ok := ordinals[artifact.Stage]; !ok {
			return Table{}, fmt.Errorf("stage table: unknown stage %q", artifact.Stage)
		}
		if _, dup := entries[artifact.Stage]; dup {
			return Table{}, fmt.Errorf("stage table: duplicate stage %q", artifact.Stage)
		}
		entries[artifact.Stage] = artifact
	}
	if _, ok := entries[Initialized]; !ok {
		return Table{}, fmt.Errorf("stage table: missing %q", Initialized)
	}
	return Table{entries: entries}, nil
}

// Lookup returns the artifact descriptor for name.
func (t Table) Lookup(name Name) (Artifact, bool) {
	artifact, ok := t.entries[name]
	return artifact, ok
}

// Has reports whether the table includes name.
func (t Table) Has(name Name) bool {
	_, ok := t.entries[name]
	return ok
}

// Names returns the table's stages in ordinal order.
func (t Table) Names() []Name {
	out := make([]Name, 0, len(t.entries))
	for _, name := range ordered {
		if _, ok := t.entries[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Last returns the highest-ordinal stage in the table.
func (t Table) Last() Name {
	names := t.Names()
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}
