// Package checkpoint implements the per-entity stage ledger and the guard
// that makes pipeline stages resumable.
//
// The ledger is a one-token text file (.state) rewritten atomically on every
// successful transition. Guard consults the in-memory stage before running a
// stage's work: reached stages are skipped and answered from the stage table,
// and only a successful run moves the checkpoint forward.
package checkpoint
