package preflight

import (
	"context"
	"path/filepath"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks a pipeline run depends on. Provider keys are
// only checked for remote providers; the placeholder backend needs none.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Content directory", cfg.Paths.ContentDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.CatalogPath != "" {
		results = append(results, CheckDirectoryAccess("Catalog directory", filepath.Dir(cfg.Paths.CatalogPath)))
	}
	if cfg.Audio.BackgroundPath != "" {
		results = append(results, CheckBackground(cfg.Audio.BackgroundPath))
	}
	results = append(results, CheckProviderKeys(cfg)...)
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
