// Package content models content entities: the idea payload, its kind, the
// directory that stores every artifact, and the checkpointed stage it has
// reached. Entities are created from an idea or reloaded from a directory;
// the ledger inside the directory is the only record of progress.
package content
