// Package apiclient is the HTTP transport shared by the AI provider
// adapters. It throttles requests with a token bucket, retries transient
// failures with capped exponential backoff (honouring Retry-After), and
// saves downloaded artifacts atomically.
package apiclient
