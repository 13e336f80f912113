package media

import (
	"context"
	"fmt"
)

// ColorImage writes a single solid frame of the given size.
func (e *Editor) ColorImage(ctx context.Context, out string, width, height int, color string) error {
	if color == "" {
		color = "black"
	}
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=%s:s=%dx%d", color, width, height),
			"-frames:v", "1",
			partial,
		}
	})
}

// ToneAudio writes a sine tone, standing in for synthesized speech.
func (e *Editor) ToneAudio(ctx context.Context, out string, duration float64) error {
	if err := requirePositive("tone", duration); err != nil {
		return err
	}
	return e.produce(ctx, out, func(partial string) []string {
		return []string{
			"-f", "lavfi",
			"-i", fmt.Sprintf("sine=frequency=440:duration=%s", fmtSeconds(duration)),
			"-c:a", "libmp3lame",
			partial,
		}
	})
}
