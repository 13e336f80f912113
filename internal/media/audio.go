package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reelforge/internal/logging"
	"reelforge/internal/services"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// AppendSilence pads in with duration seconds of stereo silence.
func (e *Editor) AppendSilence(ctx context.Context, in, out string, duration float64) error {
	if err := requirePositive("append silence", duration); err != nil {
		return err
	}
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-i", in,
			"-f", "lavfi",
			"-t", fmtSeconds(duration),
			"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
			"-filter_complex", "[0:a][1:a]concat=n=2:v=0:a=1[out]",
			"-map", "[out]",
			partial,
		}
	})
}

// ExtractSection cuts duration seconds of in starting at start. The stream
// is copied when the container matches and re-encoded to MP3 otherwise.
func (e *Editor) ExtractSection(ctx context.Context, in, out string, start, duration float64) error {
	if err := requirePositive("extract section", duration); err != nil {
		return err
	}
	if start < 0 {
		return services.Wrap(services.ErrValidation, "", "extract section", "negative start", nil)
	}
	codec := []string{"-c", "copy"}
	if !strings.EqualFold(filepath.Ext(in), filepath.Ext(out)) {
		codec = []string{"-vn", "-c:a", "libmp3lame"}
	}
	return e.produce(ctx, out, func(partial string) []string {
		args := []string{
			"-i", in,
			"-ss", fmtSeconds(start),
			"-t", fmtSeconds(duration),
		}
		args = append(args, codec...)
		return append(args, partial)
	})
}

// RandomSection cuts duration seconds from a random whole-second offset.
func (e *Editor) RandomSection(ctx context.Context, in, out string, duration float64) error {
	total, err := e.Duration(ctx, in)
	if err != nil {
		return err
	}
	if duration > total {
		return services.Wrap(services.ErrConfiguration, "", "random section",
			fmt.Sprintf("%s is %s seconds, shorter than the %s needed", filepath.Base(in), fmtSeconds(total), fmtSeconds(duration)), nil)
	}
	start := math.Floor(e.random() * math.Floor(total-duration+1))
	e.logger.Debug("background section selected",
		logging.String("source", filepath.Base(in)),
		logging.Float64("start_seconds", start),
		logging.Float64("duration_seconds", duration),
	)
	return e.ExtractSection(ctx, in, out, start, duration)
}

// Mix overlays secondary on primary. relative in [0,2] sets the secondary's
// volume; the primary gets 2-relative.
func (e *Editor) Mix(ctx context.Context, primary, secondary, out string, relative float64) error {
	if relative < 0 || relative > 2 {
		return services.Wrap(services.ErrValidation, "", "mix", fmt.Sprintf("relative volume %v outside [0,2]", relative), nil)
	}
	filter := fmt.Sprintf("[0:a]volume=%s[a0];[1:a]volume=%s[a1];[a0][a1]amix=inputs=2:duration=longest:dropout_transition=2",
		formatVolume(2-relative), formatVolume(relative))
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-i", primary,
			"-i", secondary,
			"-filter_complex", filter,
			"-c:a", "libmp3lame",
			partial,
		}
	})
}

// PickBackground resolves a background source: a file is used as is, a
// directory yields one of its audio files at random.
func (e *Editor) PickBackground(source string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "", "background", "audio.background_path", err)
	}
	if !info.IsDir() {
		return source, nil
	}
	entries, err := os.ReadDir(source)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "", "background", "audio.background_path", err)
	}
	var candidates []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			candidates = append(candidates, filepath.Join(source, entry.Name()))
		}
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "", "background", source+" contains no audio files", nil)
	}
	sort.Strings(candidates)
	index := int(e.random() * float64(len(candidates)))
	return candidates[min(index, len(candidates)-1)], nil
}

func formatVolume(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
