// Package main hosts the reelforge CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into content operations:
// creating entities from idea files or generated ideas, running them through
// the checkpointed pipeline, inspecting progress, purging intermediates, and
// scaffolding configuration. It centralizes configuration resolution, logger
// setup, catalog access, and provider wiring so subcommands stay declarative
// while the heavy lifting lives in the internal packages.
package main
