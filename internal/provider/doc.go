// Package provider defines the generation request interface the pipeline
// uses for text, image, video, and speech, and resolves the configured
// backend for each kind once at startup.
//
// Remote backends wrap the adapters under internal/services. The
// "placeholder" backend renders stand-in media with ffmpeg for offline runs.
package provider
