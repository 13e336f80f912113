package media

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"reelforge/internal/logging"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/services"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecError records a failed tool invocation.
type ExecError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if tail := outputTail(e.Output, 5); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Unwrap exposes both the external-tool marker and the underlying error.
func (e *ExecError) Unwrap() []error {
	return []error{services.ErrExternalTool, e.Err}
}

// Editor runs ffmpeg operations.
type Editor struct {
	ffmpeg string
	logger *slog.Logger
	run    Runner
	probe  *ffprobe.Prober
	random func() float64
}

// Option customizes an Editor.
type Option func(*Editor)

// WithRunner replaces command execution, for tests.
func WithRunner(r Runner) Option {
	return func(e *Editor) {
		if r != nil {
			e.run = r
		}
	}
}

// WithProber replaces the ffprobe wrapper.
func WithProber(p *ffprobe.Prober) Option {
	return func(e *Editor) {
		if p != nil {
			e.probe = p
		}
	}
}

// WithRandom replaces the [0,1) source used to pick background sections.
func WithRandom(fn func() float64) Option {
	return func(e *Editor) {
		if fn != nil {
			e.random = fn
		}
	}
}

// NewEditor builds an editor around the given ffmpeg and ffprobe binaries.
func NewEditor(ffmpegBinary, ffprobeBinary string, logger *slog.Logger, opts ...Option) *Editor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	e := &Editor{
		ffmpeg: ffmpegBinary,
		logger: logging.NewComponentLogger(logger, "media"),
		run:    defaultRunner,
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.probe == nil {
		e.probe = ffprobe.New(ffprobeBinary, nil)
	}
	return e
}

// Duration returns the length of a media file in seconds.
func (e *Editor) Duration(ctx context.Context, path string) (float64, error) {
	seconds, err := e.probe.Duration(ctx, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "", "probe", filepath.Base(path), err)
	}
	return seconds, nil
}

// Verify checks that path holds a video stream and, when wantAudio is set,
// an audio stream.
func (e *Editor) Verify(ctx context.Context, path string, wantAudio bool) error {
	result, err := e.probe.Inspect(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "", "verify", filepath.Base(path), err)
	}
	if result.VideoStreamCount() == 0 {
		return services.Wrap(services.ErrExternalTool, "", "verify", filepath.Base(path)+" has no video stream", nil)
	}
	if wantAudio && result.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrExternalTool, "", "verify", filepath.Base(path)+" has no audio stream", nil)
	}
	return nil
}

// produce runs ffmpeg with args built for a partial output path and moves
// the result to out on success.
func (e *Editor) produce(ctx context.Context, out string, build func(partial string) []string) error {
	partial := partialPath(out)
	args := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, build(partial)...)
	e.logger.Debug("ffmpeg command",
		logging.String("output", filepath.Base(out)),
		logging.String("args", strings.Join(args, " ")),
	)
	output, err := e.run(ctx, e.ffmpeg, args...)
	if err != nil {
		_ = os.Remove(partial)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg %s: %w", filepath.Base(out), ctxErr)
		}
		return &ExecError{Tool: e.ffmpeg, Args: args, Output: string(output), Err: err}
	}
	if err := os.Rename(partial, out); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("ffmpeg %s: %w", filepath.Base(out), err)
	}
	return nil
}

func partialPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".partial" + ext
}

// workPath derives an intermediate file name next to out.
func workPath(out, suffix string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "_" + suffix
}

func fmtSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func requirePositive(op string, v float64) error {
	if v <= 0 {
		return services.Wrap(services.ErrValidation, "", op, fmt.Sprintf("duration must be positive, got %s", fmtSeconds(v)), nil)
	}
	return nil
}

func outputTail(output string, lines int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, " | ")
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
