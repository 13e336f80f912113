// Package notifications pushes run outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// workflow code can notify unconditionally. The run_complete and errors
// switches in [notifications] silence the matching messages.
package notifications
