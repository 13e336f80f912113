package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// maxContinuations bounds ExtendAI when clips come back shorter than expected.
const maxContinuations = 20

// ContinueFunc generates a clip at out that starts from the image at frame.
type ContinueFunc func(ctx context.Context, frame, out string) error

// StillToVideo renders image as an H.264 clip of the given length.
func (e *Editor) StillToVideo(ctx context.Context, image, out string, duration float64) error {
	if err := requirePositive("still to video", duration); err != nil {
		return err
	}
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-loop", "1",
			"-i", image,
			"-c:v", "libx264",
			"-t", fmtSeconds(duration),
			"-pix_fmt", "yuv420p",
			partial,
		}
	})
}

// Boomerang writes in followed by its reverse, without audio.
func (e *Editor) Boomerang(ctx context.Context, in, out string) error {
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-ss", "0",
			"-an",
			"-i", in,
			"-filter_complex", "[0]split[b][c];[c]reverse[r];[b][r]concat",
			partial,
		}
	})
}

// Concat joins clips with the concat demuxer without re-encoding.
func (e *Editor) Concat(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 0 {
		return services.Wrap(services.ErrValidation, "", "concat", "no inputs", nil)
	}
	listPath := workPath(out, "concat.txt")
	var list strings.Builder
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("concat: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("concat list: %w", err)
	}
	defer os.Remove(listPath)

	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-f", "concat",
			"-safe", "0",
			"-i", listPath,
			"-c", "copy",
			partial,
		}
	})
}

// Trim keeps the first duration seconds of in.
func (e *Editor) Trim(ctx context.Context, in, out string, duration float64) error {
	if err := requirePositive("trim", duration); err != nil {
		return err
	}
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-i", in,
			"-t", fmtSeconds(duration),
			"-c", "copy",
			partial,
		}
	})
}

// ExtractLastFrame saves a frame from the final seconds of in as a JPEG.
func (e *Editor) ExtractLastFrame(ctx context.Context, in, out string) error {
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-sseof", "-3",
			"-i", in,
			"-vsync", "0",
			"-q:v", "0",
			"-update", "true",
			partial,
		}
	})
}

// AttachAudio muxes the audio track onto the video, cutting at the shorter.
func (e *Editor) AttachAudio(ctx context.Context, video, audio, out string) error {
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-i", video,
			"-i", audio,
			"-map", "0:v",
			"-map", "1:a",
			"-c:v", "copy",
			"-shortest",
			partial,
		}
	})
}

// ExtendLoop stretches in to target seconds by repeating a boomerang of it.
func (e *Editor) ExtendLoop(ctx context.Context, in, out string, target float64) error {
	if err := requirePositive("extend loop", target); err != nil {
		return err
	}
	boomerang := workPath(out, "boomerang.mp4")
	defer os.Remove(boomerang)
	if err := e.Boomerang(ctx, in, boomerang); err != nil {
		return err
	}
	length, err := e.Duration(ctx, boomerang)
	if err != nil {
		return err
	}

	source := boomerang
	if repeats := int(math.Ceil(target / length)); repeats > 1 {
		looped := workPath(out, "loop.mp4")
		defer os.Remove(looped)
		inputs := make([]string, repeats)
		for i := range inputs {
			inputs[i] = boomerang
		}
		if err := e.Concat(ctx, inputs, looped); err != nil {
			return err
		}
		source = looped
	}
	return e.Trim(ctx, source, out, target)
}

// ExtendAI stretches in to target seconds by asking next for continuation
// clips, each seeded with the last frame of the previous one.
func (e *Editor) ExtendAI(ctx context.Context, in, out string, target float64, next ContinueFunc) error {
	if err := requirePositive("extend ai", target); err != nil {
		return err
	}
	total, err := e.Duration(ctx, in)
	if err != nil {
		return err
	}

	clips := []string{in}
	var scratch []string
	defer func() {
		for _, path := range scratch {
			_ = os.Remove(path)
		}
	}()

	current := in
	for n := 0; total < target; n++ {
		if n >= maxContinuations {
			return services.Wrap(services.ErrExternalTool, "", "extend ai",
				fmt.Sprintf("reached %s of %s seconds after %d continuations", fmtSeconds(total), fmtSeconds(target), n), nil)
		}
		frame := workPath(out, fmt.Sprintf("lastframe%d.jpg", n))
		clip := workPath(out, fmt.Sprintf("ai_extension%d.mp4", n))
		scratch = append(scratch, frame, clip)
		if err := e.ExtractLastFrame(ctx, current, frame); err != nil {
			return err
		}
		if err := next(ctx, frame, clip); err != nil {
			return err
		}
		length, err := e.Duration(ctx, clip)
		if err != nil {
			return err
		}
		e.logger.Debug("continuation clip ready",
			logging.Int("index", n),
			logging.Float64("clip_seconds", length),
		)
		clips = append(clips, clip)
		total += length
		current = clip
	}

	source := in
	if len(clips) > 1 {
		joined := workPath(out, "ai_concat.mp4")
		scratch = append(scratch, joined)
		if err := e.Concat(ctx, clips, joined); err != nil {
			return err
		}
		source = joined
	}
	return e.Trim(ctx, source, out, target)
}

// BurnSubtitles renders an ASS script onto video, keeping the audio as is.
func (e *Editor) BurnSubtitles(ctx context.Context, video, script, out string) error {
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-i", video,
			"-vf", "subtitles=filename=" + escapeFilterPath(script),
			"-c:a", "copy",
			partial,
		}
	})
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// escapeFilterPath quotes a path for use as a filter option value inside a
// filtergraph, which ffmpeg unescapes twice.
func escapeFilterPath(path string) string {
	return graphEscaper.Replace(optionEscaper.Replace(path))
}
