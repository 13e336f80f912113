// Package preflight provides readiness checks for the filesystem paths,
// binaries, and provider credentials reelforge depends on.
//
// `reelforge run` calls RunAll before touching an entity so a missing key or
// unwritable content directory fails fast instead of after paid generation
// calls. `reelforge check` prints every result.
package preflight
