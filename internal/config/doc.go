// Package config loads, normalizes, and validates reelforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for provider
// credentials such as OPENROUTER_API_KEY. The Config type centralizes every
// knob the pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical option values, and clear validation errors.
package config
