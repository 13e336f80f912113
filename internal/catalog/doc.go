// Package catalog keeps a SQLite index of content entities for listing and
// batch selection.
//
// The catalog mirrors what the per-entity ledger files already record; it is
// never consulted to decide which stage to resume. Rows are updated through
// Observer while the pipeline runs and can be rebuilt from disk with Rescan.
// Schema changes bump the version in schema.go.
package catalog
