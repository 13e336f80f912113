// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Prober runs ffprobe through an injectable Runner so callers can test
// without the binary. Result helpers expose stream counts and the container
// duration the editor uses to size clips.
package ffprobe
