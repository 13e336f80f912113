// Package workflow drives content entities through their checkpointed
// stages.
//
// Pipeline.Run walks the stage table of an entity in order. Every stage is
// wrapped in checkpoint.Guard, so a rerun skips whatever the ledger already
// records and resumes at the first unreached stage. Per-language stages fan
// out with an errgroup bounded by workflow.language_concurrency; the stage
// commits once, after every language succeeded, and the first failure cancels
// the remaining languages. A failed stage leaves the ledger untouched and the
// next run redoes it for every language.
//
// Progress is mirrored to an optional Observer (the catalog) and run outcomes
// are pushed through the notifications service. Neither can fail a run.
// Batch runs runnable catalog entries one after another for `reelforge run
// --all`.
package workflow
