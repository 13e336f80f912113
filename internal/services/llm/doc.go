// Package llm provides the OpenRouter chat client behind the "text" provider.
//
// Client.Complete sends one user prompt and returns the reply; idea
// generation decodes that reply with DecodeLLMJSON, which tolerates code
// fences and prose around the JSON. Client.HealthCheck is a cheap JSON ping
// used by `reelforge check --ping`.
//
// # Retry Behaviour
//
// Requests go through apiclient: HTTP 408/429/5xx, network timeouts, and
// empty completions are retried with exponential backoff (base 1s, max 10s,
// up to 5 attempts by default). Context cancellation aborts retries
// immediately.
package llm
