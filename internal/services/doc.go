// Package services defines shared utilities consumed by the pipeline stages
// and the external AI integrations.
//
// Key responsibilities:
//   - Context helpers that stamp content directories, stage names, languages,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be told
//     apart (usage error vs external failure) without string matching.
//
// Provider adapters live in the subpackages (llm, runware, minimax,
// elevenlabs) and share the retrying transport in services/apiclient.
package services
